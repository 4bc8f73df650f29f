package console

import (
	"context"
	"iter"
	"strings"
	"sync"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultFanout = 4

// Orchestrator composes order views and submits writes for one console
// session. Writes are serialized and never retried: an abandoned or failed
// write is reported to the caller as is.
type Orchestrator struct {
	client  *Client
	fanout  int
	writeMu sync.Mutex
}

// NewOrchestrator limits per-item detail fetches to fanout at a time.
func NewOrchestrator(c *Client, fanout int) *Orchestrator {
	if fanout <= 0 {
		fanout = defaultFanout
	}
	return &Orchestrator{client: c, fanout: fanout}
}

// LoadOrderView fetches the order, then its items, then every item's
// assignments and part usages in parallel. observe, when set, receives the
// provisional view before the fan-out and the reconciled view after it.
// A failed detail fetch degrades only its item.
func (o *Orchestrator) LoadOrderView(ctx context.Context, id uuid.UUID, observe func(OrderView)) (OrderView, error) {
	order, err := o.client.GetOrder(ctx, id)
	if err != nil {
		return OrderView{}, errors.Wrap(err, "load order")
	}
	items, err := o.client.ListItems(ctx, id)
	if err != nil {
		return OrderView{}, errors.Wrap(err, "load items")
	}

	view := OrderView{Phase: PhaseProvisional, Order: *order, Items: make([]ItemView, len(items))}
	for i, it := range items {
		view.Items[i] = ItemView{
			Item:        it,
			Assignments: []dto.AssignmentResponse{},
			Parts:       []dto.PartUsageResponse{},
			Pending:     true,
		}
	}
	if observe != nil {
		observe(view.clone())
	}

	// Each goroutine owns one slot, so no lock is needed. Errors are kept
	// per item and never cancel the siblings.
	var g errgroup.Group
	g.SetLimit(o.fanout)
	for i := range view.Items {
		slot := &view.Items[i]
		g.Go(func() error {
			o.loadDetails(ctx, id, slot)
			return nil
		})
	}
	_ = g.Wait()

	view.Phase = PhaseReconciled
	if view.Degraded() {
		log.Warn().Str("order_id", id.String()).Msg("order view degraded: some item details failed")
	}
	if observe != nil {
		observe(view.clone())
	}
	if err := ctx.Err(); err != nil {
		return view, err
	}
	return view, nil
}

func (o *Orchestrator) loadDetails(ctx context.Context, orderID uuid.UUID, slot *ItemView) {
	slot.Pending = false
	itemID, err := uuid.Parse(slot.Item.ID)
	if err != nil {
		slot.DetailErr = errors.Wrap(err, "item id")
		return
	}
	assignments, err := o.client.ListAssignments(ctx, orderID, itemID)
	if err != nil {
		slot.DetailErr = errors.Wrapf(err, "assignments of item %s", itemID)
		return
	}
	parts, err := o.client.ListPartUsages(ctx, orderID, itemID)
	if err != nil {
		slot.DetailErr = errors.Wrapf(err, "part usages of item %s", itemID)
		return
	}
	slot.Assignments = append(slot.Assignments, assignments...)
	slot.Parts = append(slot.Parts, parts...)
}

func (o *Orchestrator) write(fn func() error) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()
	return fn()
}

func (o *Orchestrator) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (resp *dto.OrderResponse, err error) {
	err = o.write(func() error {
		resp, err = o.client.CreateOrder(ctx, req)
		return err
	})
	return resp, err
}

func (o *Orchestrator) AddItem(ctx context.Context, orderID uuid.UUID, req dto.AddItemRequest) (resp *dto.OrderItemResponse, err error) {
	if req.Quantity <= 0 {
		return nil, apierror.Invalid("la cantidad debe ser positiva")
	}
	err = o.write(func() error {
		resp, err = o.client.AddItem(ctx, orderID, req)
		return err
	})
	return resp, err
}

func (o *Orchestrator) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	return o.write(func() error { return o.client.RemoveItem(ctx, orderID, itemID) })
}

func (o *Orchestrator) AssignMechanic(ctx context.Context, orderID, itemID uuid.UUID, req dto.AddAssignmentRequest) (resp *dto.AssignmentResponse, err error) {
	if req.EstimatedHours != nil && *req.EstimatedHours < 0 {
		return nil, apierror.Invalid("las horas estimadas no pueden ser negativas")
	}
	err = o.write(func() error {
		resp, err = o.client.AddAssignment(ctx, orderID, itemID, req)
		return err
	})
	return resp, err
}

// AddPartUsage reads fresh stock first and refuses quantities above it
// without writing. The server still decides atomically.
func (o *Orchestrator) AddPartUsage(ctx context.Context, orderID, itemID uuid.UUID, req dto.AddPartUsageRequest) (resp *dto.PartUsageResponse, err error) {
	if req.Quantity <= 0 {
		return nil, apierror.Invalid("la cantidad debe ser positiva")
	}
	partID, err := uuid.Parse(req.PartID)
	if err != nil {
		return nil, apierror.Invalid("partId invalido: %q", req.PartID)
	}
	err = o.write(func() error {
		stock, err := o.client.GetStock(ctx, partID)
		if err != nil {
			return errors.Wrap(err, "read stock")
		}
		if req.Quantity > stock {
			return apierror.E(apierror.KindInsufficientStock,
				"stock insuficiente para el repuesto %s: disponible %d, solicitado %d", partID, stock, req.Quantity)
		}
		resp, err = o.client.AddPartUsage(ctx, orderID, itemID, req)
		return err
	})
	return resp, err
}

func (o *Orchestrator) RemovePartUsage(ctx context.Context, orderID, itemID, partID uuid.UUID) error {
	return o.write(func() error { return o.client.RemovePartUsage(ctx, orderID, itemID, partID) })
}

func (o *Orchestrator) ChangeStatus(ctx context.Context, orderID uuid.UUID, status string) (resp *dto.OrderResponse, err error) {
	err = o.write(func() error {
		resp, err = o.client.ChangeStatus(ctx, orderID, status)
		return err
	})
	return resp, err
}

// CreateSupervision rejects self-supervision and blank notes locally.
func (o *Orchestrator) CreateSupervision(ctx context.Context, req dto.CreateSupervisionRequest) (resp *dto.SupervisionResponse, err error) {
	if req.SupervisorID == req.Supervised() {
		return nil, apierror.E(apierror.KindSelfSupervision, "un mecanico no puede supervisarse a si mismo")
	}
	if strings.TrimSpace(req.Notes) == "" {
		return nil, apierror.Invalid("las notas son obligatorias")
	}
	err = o.write(func() error {
		resp, err = o.client.CreateSupervision(ctx, req)
		return err
	})
	return resp, err
}

func (o *Orchestrator) DeleteSupervision(ctx context.Context, key dto.SupervisionKey) error {
	return o.write(func() error { return o.client.DeleteSupervision(ctx, key) })
}

func (o *Orchestrator) GenerateInvoice(ctx context.Context, orderID uuid.UUID) (resp *dto.InvoiceResponse, err error) {
	err = o.write(func() error {
		resp, err = o.client.InvoiceFromOrder(ctx, orderID)
		return err
	})
	return resp, err
}

// Supervisions walks an order's supervisions page by page, fetching the
// next page only when the consumer asks for more. A fetch error is yielded
// once and ends the sequence.
func (o *Orchestrator) Supervisions(ctx context.Context, orderID uuid.UUID, pageSize int) iter.Seq2[dto.SupervisionResponse, error] {
	return func(yield func(dto.SupervisionResponse, error) bool) {
		for page := 0; ; page++ {
			p, err := o.client.ListSupervisions(ctx, orderID, page, pageSize)
			if err != nil {
				yield(dto.SupervisionResponse{}, err)
				return
			}
			for _, s := range p.Content {
				if !yield(s, nil) {
					return
				}
			}
			if len(p.Content) == 0 || page+1 >= p.TotalPages {
				return
			}
		}
	}
}
