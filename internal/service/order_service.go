package service

import (
	"context"
	"strings"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"
	"motorplus/internal/model"
	"motorplus/internal/repository"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService manages the order aggregate: orders, their items and each
// item's assignments and part usages. Every composition change runs in one
// transaction that ends by recomputing the order total.
type OrderService interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, filter dto.OrderFilter) (dto.Page[dto.OrderResponse], error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*dto.OrderResponse, error)

	ListItems(ctx context.Context, orderID uuid.UUID, q dto.PageQuery) (dto.Page[dto.OrderItemResponse], error)
	GetItem(ctx context.Context, orderID, itemID uuid.UUID) (*dto.OrderItemResponse, error)
	AddItem(ctx context.Context, orderID uuid.UUID, req dto.AddItemRequest) (*dto.OrderItemResponse, error)
	UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, req dto.UpdateItemRequest) (*dto.OrderItemResponse, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error

	ListAssignments(ctx context.Context, orderID, itemID uuid.UUID, q dto.PageQuery) (dto.Page[dto.AssignmentResponse], error)
	AddAssignment(ctx context.Context, orderID, itemID uuid.UUID, req dto.AddAssignmentRequest) (*dto.AssignmentResponse, error)
	UpdateAssignment(ctx context.Context, orderID, itemID, mechanicID uuid.UUID, req dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error)
	RemoveAssignment(ctx context.Context, orderID, itemID, mechanicID uuid.UUID) error

	ListPartUsages(ctx context.Context, orderID, itemID uuid.UUID, q dto.PageQuery) (dto.Page[dto.PartUsageResponse], error)
	AddPartUsage(ctx context.Context, orderID, itemID uuid.UUID, req dto.AddPartUsageRequest) (*dto.PartUsageResponse, error)
	UpdatePartUsage(ctx context.Context, orderID, itemID, partID uuid.UUID, req dto.UpdatePartUsageRequest) (*dto.PartUsageResponse, error)
	RemovePartUsage(ctx context.Context, orderID, itemID, partID uuid.UUID) error
}

type orderService struct {
	orders    repository.OrderRepository
	clients   repository.ClientRepository
	services  repository.ServiceRepository
	mechanics repository.MechanicRepository
	parts     repository.PartRepository
	inventory InventoryService
	pageSize  int
}

func NewOrderService(
	orders repository.OrderRepository,
	clients repository.ClientRepository,
	services repository.ServiceRepository,
	mechanics repository.MechanicRepository,
	parts repository.PartRepository,
	inventory InventoryService,
	pageSize int,
) OrderService {
	return &orderService{
		orders:    orders,
		clients:   clients,
		services:  services,
		mechanics: mechanics,
		parts:     parts,
		inventory: inventory,
		pageSize:  pageSize,
	}
}

// composition carries the locked order through one mutation. Parts whose
// stock went down are collected for the low-stock check after commit.
type composition struct {
	tx       *gorm.DB
	order    *model.Order
	consumed []uuid.UUID
}

// compose locks the order, refuses terminal orders, runs fn and recomputes
// the total, all in one transaction.
func (s *orderService) compose(ctx context.Context, orderID uuid.UUID, fn func(c *composition) error) (*model.Order, error) {
	c := &composition{}
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		o, err := s.orders.FindForUpdateTx(tx, orderID)
		if err != nil {
			return lookup(err, "orden", orderID)
		}
		if o.Status.Terminal() {
			return apierror.E(apierror.KindInvalidState, "la orden %s esta %s y no admite cambios", orderID, o.Status)
		}
		c.tx, c.order = tx, o
		if err := fn(c); err != nil {
			return err
		}
		return s.recomputeTx(tx, o)
	})
	if err != nil {
		return nil, err
	}
	for _, partID := range c.consumed {
		s.inventory.CheckLowStock(ctx, partID)
	}
	return c.order, nil
}

// recomputeTx sets total to the sum of item and part usage subtotals.
// Assignments carry no price.
func (s *orderService) recomputeTx(tx *gorm.DB, o *model.Order) error {
	items, err := s.orders.ListItemsTx(tx, o.ID)
	if err != nil {
		return errors.Wrap(err, "load items for total")
	}
	usages, err := s.orders.ListPartUsagesByOrderTx(tx, o.ID)
	if err != nil {
		return errors.Wrap(err, "load part usages for total")
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	for _, pu := range usages {
		total = total.Add(pu.Subtotal)
	}
	if err := s.orders.UpdateTotalTx(tx, o.ID, total); err != nil {
		return errors.Wrap(err, "update order total")
	}
	o.Total = total
	return nil
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	clientID, err := parseID("clientId", req.ClientID)
	if err != nil {
		return nil, err
	}
	plate := normalizePlate(req.LicensePlate)
	if plate == "" {
		return nil, apierror.Invalid("la patente es obligatoria")
	}
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return nil, lookup(err, "cliente", clientID)
	}

	o := &model.Order{
		ClientID:     clientID,
		LicensePlate: plate,
		Status:       model.OrderDraft,
		Description:  req.Description,
		Total:        decimal.Zero,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	log.Info().Str("order_id", o.ID.String()).Str("plate", plate).Msg("orden creada")
	resp := orderToResponse(o)
	return &resp, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "orden", id)
	}
	resp := orderToResponse(o)
	return &resp, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter dto.OrderFilter) (dto.Page[dto.OrderResponse], error) {
	filter.PageQuery = filter.PageQuery.Normalize(s.pageSize)
	if filter.Status != "" {
		st := model.OrderStatus(strings.ToUpper(filter.Status))
		if !st.Valid() {
			return dto.Page[dto.OrderResponse]{}, apierror.Invalid("estado invalido: %q", filter.Status)
		}
		filter.Status = string(st)
	}
	filter.LicensePlate = normalizePlate(filter.LicensePlate)
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.OrderResponse]{}, errors.Wrap(err, "list orders")
	}
	return dto.NewPage(mapSlice(orders, orderToResponse), total, filter.PageQuery), nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	var clientID *uuid.UUID
	if req.ClientID != nil {
		cid, err := parseID("clientId", *req.ClientID)
		if err != nil {
			return nil, err
		}
		if _, err := s.clients.FindByID(ctx, cid); err != nil {
			return nil, lookup(err, "cliente", cid)
		}
		clientID = &cid
	}
	var next *model.OrderStatus
	if req.Status != nil {
		st, err := parseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		next = &st
	}
	fieldsChanged := req.ClientID != nil || req.LicensePlate != nil || req.Description != nil

	var out *model.Order
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		o, err := s.orders.FindForUpdateTx(tx, id)
		if err != nil {
			return lookup(err, "orden", id)
		}
		if fieldsChanged && o.Status.Terminal() {
			return apierror.E(apierror.KindInvalidState, "la orden %s esta %s y no admite cambios", id, o.Status)
		}
		if clientID != nil {
			o.ClientID = *clientID
		}
		if req.LicensePlate != nil {
			plate := normalizePlate(*req.LicensePlate)
			if plate == "" {
				return apierror.Invalid("la patente es obligatoria")
			}
			o.LicensePlate = plate
		}
		if req.Description != nil {
			o.Description = *req.Description
		}
		prev := o.Status
		if next != nil {
			if err := transition(o, *next); err != nil {
				return err
			}
		}
		if err := s.orders.UpdateTx(tx, o); err != nil {
			return errors.Wrap(err, "update order")
		}
		if o.Status != prev {
			logTransition(id, prev, o.Status)
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := orderToResponse(out)
	return &resp, nil
}

// transition moves o to next along the status table. Re-entering the current
// status is not a transition.
func transition(o *model.Order, next model.OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return illegalTransition(o.Status, next)
	}
	o.Status = next
	return nil
}

func logTransition(id uuid.UUID, from, to model.OrderStatus) {
	log.Info().Str("order_id", id.String()).Str("from", string(from)).Str("to", string(to)).Msg("orden cambio de estado")
}

func (s *orderService) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*dto.OrderResponse, error) {
	next, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	var out *model.Order
	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		o, err := s.orders.FindForUpdateTx(tx, id)
		if err != nil {
			return lookup(err, "orden", id)
		}
		prev := o.Status
		if err := transition(o, next); err != nil {
			return err
		}
		if err := s.orders.UpdateTx(tx, o); err != nil {
			return errors.Wrap(err, "update order status")
		}
		logTransition(id, prev, next)
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := orderToResponse(out)
	return &resp, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if _, err := s.orders.FindForUpdateTx(tx, id); err != nil {
			return lookup(err, "orden", id)
		}
		invoiced, err := s.orders.HasInvoiceTx(tx, id)
		if err != nil {
			return errors.Wrap(err, "check invoice")
		}
		if invoiced {
			return apierror.E(apierror.KindInvalidState, "la orden %s tiene una factura y no puede eliminarse", id)
		}
		items, err := s.orders.ListItemsTx(tx, id)
		if err != nil {
			return errors.Wrap(err, "load items")
		}
		for _, it := range items {
			if err := s.dropItemTx(tx, it.ID); err != nil {
				return err
			}
		}
		if err := s.orders.DeleteSupervisionsTx(tx, id); err != nil {
			return errors.Wrap(err, "delete supervisions")
		}
		if err := s.orders.DeleteTx(tx, id); err != nil {
			return errors.Wrap(err, "delete order")
		}
		return nil
	})
}

func parseStatus(raw string) (model.OrderStatus, error) {
	st := model.OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !st.Valid() {
		return "", apierror.Invalid("estado invalido: %q", raw)
	}
	return st, nil
}

func illegalTransition(from, to model.OrderStatus) error {
	return apierror.E(apierror.KindIllegalTransition, "transicion invalida de %s a %s", from, to)
}

// ── Items ────────────────────────────────────────────────────────────────────

// itemOf confirms the order exists and owns the item, outside a transaction.
func (s *orderService) itemOf(ctx context.Context, orderID, itemID uuid.UUID) error {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return lookup(err, "orden", orderID)
	}
	_, err := s.orders.FindItemTx(s.orders.DB().WithContext(ctx), orderID, itemID)
	return lookup(err, "item", itemID)
}

func (s *orderService) ListItems(ctx context.Context, orderID uuid.UUID, q dto.PageQuery) (dto.Page[dto.OrderItemResponse], error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return dto.Page[dto.OrderItemResponse]{}, lookup(err, "orden", orderID)
	}
	items, err := s.orders.ListItems(ctx, orderID)
	if err != nil {
		return dto.Page[dto.OrderItemResponse]{}, errors.Wrap(err, "list items")
	}
	return dto.SlicePage(mapSlice(items, itemToResponse), q.Normalize(s.pageSize)), nil
}

func (s *orderService) GetItem(ctx context.Context, orderID, itemID uuid.UUID) (*dto.OrderItemResponse, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, lookup(err, "orden", orderID)
	}
	item, err := s.orders.FindItem(ctx, orderID, itemID)
	if err != nil {
		return nil, lookup(err, "item", itemID)
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *orderService) AddItem(ctx context.Context, orderID uuid.UUID, req dto.AddItemRequest) (*dto.OrderItemResponse, error) {
	serviceID, err := parseID("serviceId", req.ServiceID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apierror.Invalid("la cantidad debe ser positiva, recibido %d", req.Quantity)
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, apierror.Invalid("el precio no puede ser negativo")
	}

	var item *model.OrderItem
	_, err = s.compose(ctx, orderID, func(c *composition) error {
		svc, err := s.services.FindByIDTx(c.tx, serviceID)
		if err != nil {
			return lookup(err, "servicio", serviceID)
		}
		if !svc.Active {
			return apierror.Invalid("el servicio %s esta inactivo", svc.Name)
		}
		price := svc.Price
		if req.UnitPrice != nil {
			price = req.UnitPrice.Round(2)
		}
		item = &model.OrderItem{
			OrderID:     orderID,
			ServiceID:   serviceID,
			Description: req.Description,
			Quantity:    req.Quantity,
			UnitPrice:   price,
			Subtotal:    model.LineSubtotal(req.Quantity, price),
			Service:     svc,
		}
		if err := s.orders.CreateItemTx(c.tx, item); err != nil {
			return errors.Wrap(err, "create item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *orderService) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, req dto.UpdateItemRequest) (*dto.OrderItemResponse, error) {
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, apierror.Invalid("la cantidad debe ser positiva, recibido %d", *req.Quantity)
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, apierror.Invalid("el precio no puede ser negativo")
	}

	var item *model.OrderItem
	_, err := s.compose(ctx, orderID, func(c *composition) error {
		it, err := s.orders.FindItemTx(c.tx, orderID, itemID)
		if err != nil {
			return lookup(err, "item", itemID)
		}
		if req.Description != nil {
			it.Description = *req.Description
		}
		if req.Quantity != nil {
			it.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			it.UnitPrice = req.UnitPrice.Round(2)
		}
		it.Subtotal = model.LineSubtotal(it.Quantity, it.UnitPrice)
		item = it
		if err := s.orders.UpdateItemTx(c.tx, it); err != nil {
			return errors.Wrap(err, "update item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *orderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	_, err := s.compose(ctx, orderID, func(c *composition) error {
		if _, err := s.orders.FindItemTx(c.tx, orderID, itemID); err != nil {
			return lookup(err, "item", itemID)
		}
		return s.dropItemTx(c.tx, itemID)
	})
	return err
}

// dropItemTx deletes an item with its assignments and part usages,
// returning each usage's quantity to stock.
func (s *orderService) dropItemTx(tx *gorm.DB, itemID uuid.UUID) error {
	usages, err := s.orders.ListPartUsagesTx(tx, itemID)
	if err != nil {
		return errors.Wrap(err, "load part usages")
	}
	for _, pu := range usages {
		if _, err := s.inventory.ReleaseTx(tx, pu.PartID, pu.Quantity, &pu.ID); err != nil {
			return err
		}
		if err := s.orders.DeletePartUsageTx(tx, pu.ID); err != nil {
			return errors.Wrap(err, "delete part usage")
		}
	}
	if err := s.orders.DeleteAssignmentsByItemTx(tx, itemID); err != nil {
		return errors.Wrap(err, "delete assignments")
	}
	if err := s.orders.DeleteItemTx(tx, itemID); err != nil {
		return errors.Wrap(err, "delete item")
	}
	return nil
}

// ── Assignments ──────────────────────────────────────────────────────────────

func (s *orderService) ListAssignments(ctx context.Context, orderID, itemID uuid.UUID, q dto.PageQuery) (dto.Page[dto.AssignmentResponse], error) {
	if err := s.itemOf(ctx, orderID, itemID); err != nil {
		return dto.Page[dto.AssignmentResponse]{}, err
	}
	out, err := s.orders.ListAssignments(ctx, itemID)
	if err != nil {
		return dto.Page[dto.AssignmentResponse]{}, errors.Wrap(err, "list assignments")
	}
	return dto.SlicePage(mapSlice(out, assignmentToResponse), q.Normalize(s.pageSize)), nil
}

func (s *orderService) AddAssignment(ctx context.Context, orderID, itemID uuid.UUID, req dto.AddAssignmentRequest) (*dto.AssignmentResponse, error) {
	mechanicID, err := parseID("mechanicId", req.MechanicID)
	if err != nil {
		return nil, err
	}
	if req.EstimatedHours != nil && *req.EstimatedHours < 0 {
		return nil, apierror.Invalid("las horas estimadas no pueden ser negativas")
	}

	var a *model.Assignment
	_, err = s.compose(ctx, orderID, func(c *composition) error {
		if _, err := s.orders.FindItemTx(c.tx, orderID, itemID); err != nil {
			return lookup(err, "item", itemID)
		}
		m, err := s.mechanics.FindByIDTx(c.tx, mechanicID)
		if err != nil {
			return lookup(err, "mecanico", mechanicID)
		}
		if !m.Active {
			return apierror.Invalid("el mecanico %s esta inactivo", m.FullName())
		}
		_, err = s.orders.FindAssignmentTx(c.tx, itemID, mechanicID)
		switch {
		case err == nil:
			return duplicateAssignment(m, itemID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return errors.Wrap(err, "check assignment")
		}
		a = &model.Assignment{OrderItemID: itemID, MechanicID: mechanicID, EstimatedHours: req.EstimatedHours, Mechanic: m}
		if err := s.orders.CreateAssignmentTx(c.tx, a); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateAssignment(m, itemID)
			}
			return errors.Wrap(err, "create assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := assignmentToResponse(a)
	return &resp, nil
}

func duplicateAssignment(m *model.Mechanic, itemID uuid.UUID) error {
	return apierror.E(apierror.KindDuplicateAssignment, "el mecanico %s ya esta asignado al item %s", m.FullName(), itemID)
}

func (s *orderService) UpdateAssignment(ctx context.Context, orderID, itemID, mechanicID uuid.UUID, req dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error) {
	if req.EstimatedHours != nil && *req.EstimatedHours < 0 {
		return nil, apierror.Invalid("las horas estimadas no pueden ser negativas")
	}
	var a *model.Assignment
	_, err := s.compose(ctx, orderID, func(c *composition) error {
		if _, err := s.orders.FindItemTx(c.tx, orderID, itemID); err != nil {
			return lookup(err, "item", itemID)
		}
		found, err := s.orders.FindAssignmentTx(c.tx, itemID, mechanicID)
		if err != nil {
			return lookup(err, "asignacion", mechanicID)
		}
		found.EstimatedHours = req.EstimatedHours
		a = found
		if err := s.orders.UpdateAssignmentTx(c.tx, found); err != nil {
			return errors.Wrap(err, "update assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := assignmentToResponse(a)
	return &resp, nil
}

func (s *orderService) RemoveAssignment(ctx context.Context, orderID, itemID, mechanicID uuid.UUID) error {
	_, err := s.compose(ctx, orderID, func(c *composition) error {
		if _, err := s.orders.FindItemTx(c.tx, orderID, itemID); err != nil {
			return lookup(err, "item", itemID)
		}
		a, err := s.orders.FindAssignmentTx(c.tx, itemID, mechanicID)
		if err != nil {
			return lookup(err, "asignacion", mechanicID)
		}
		if err := s.orders.DeleteAssignmentTx(c.tx, a.ID); err != nil {
			return errors.Wrap(err, "delete assignment")
		}
		return nil
	})
	return err
}

// ── Part usages ──────────────────────────────────────────────────────────────

func (s *orderService) ListPartUsages(ctx context.Context, orderID, itemID uuid.UUID, q dto.PageQuery) (dto.Page[dto.PartUsageResponse], error) {
	if err := s.itemOf(ctx, orderID, itemID); err != nil {
		return dto.Page[dto.PartUsageResponse]{}, err
	}
	out, err := s.orders.ListPartUsages(ctx, itemID)
	if err != nil {
		return dto.Page[dto.PartUsageResponse]{}, errors.Wrap(err, "list part usages")
	}
	return dto.SlicePage(mapSlice(out, partUsageToResponse), q.Normalize(s.pageSize)), nil
}

// AddPartUsage reserves stock and records the usage in one transaction.
// Adding a part already used on the item grows the existing usage at its
// original unit price.
func (s *orderService) AddPartUsage(ctx context.Context, orderID, itemID uuid.UUID, req dto.AddPartUsageRequest) (*dto.PartUsageResponse, error) {
	partID, err := parseID("partId", req.PartID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apierror.Invalid("la cantidad debe ser positiva, recibido %d", req.Quantity)
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, apierror.Invalid("el precio no puede ser negativo")
	}

	var pu *model.PartUsage
	_, err = s.compose(ctx, orderID, func(c *composition) error {
		if _, err := s.orders.FindItemTx(c.tx, orderID, itemID); err != nil {
			return lookup(err, "item", itemID)
		}
		part, err := s.parts.FindByIDTx(c.tx, partID)
		if err != nil {
			return lookup(err, "repuesto", partID)
		}
		if !part.Active {
			return apierror.Invalid("el repuesto %s esta inactivo", part.Name)
		}

		existing, err := s.orders.FindPartUsageTx(c.tx, itemID, partID)
		merge := err == nil
		switch {
		case merge:
			// The merged usage keeps the price captured when it was created.
			if req.UnitPrice != nil && !req.UnitPrice.Round(2).Equal(existing.UnitPrice) {
				return apierror.Invalid("el repuesto %s ya se uso a %s; quite el uso para cambiar el precio", part.Name, existing.UnitPrice.StringFixed(2))
			}
			pu = existing
			pu.Quantity += req.Quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			price := part.UnitPrice
			if req.UnitPrice != nil {
				price = req.UnitPrice.Round(2)
			}
			pu = &model.PartUsage{ID: uuid.New(), OrderItemID: itemID, PartID: partID, Quantity: req.Quantity, UnitPrice: price}
		default:
			return errors.Wrap(err, "check part usage")
		}
		pu.Subtotal = model.LineSubtotal(pu.Quantity, pu.UnitPrice)

		after, err := s.inventory.ReserveTx(c.tx, partID, req.Quantity, &pu.ID)
		if err != nil {
			return err
		}
		pu.Part = after
		c.consumed = append(c.consumed, partID)

		if merge {
			if err := s.orders.UpdatePartUsageTx(c.tx, pu); err != nil {
				return errors.Wrap(err, "update part usage")
			}
			return nil
		}
		if err := s.orders.CreatePartUsageTx(c.tx, pu); err != nil {
			return errors.Wrap(err, "create part usage")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := partUsageToResponse(pu)
	return &resp, nil
}

// UpdatePartUsage moves stock by the quantity delta: growth reserves,
// shrinkage releases.
func (s *orderService) UpdatePartUsage(ctx context.Context, orderID, itemID, partID uuid.UUID, req dto.UpdatePartUsageRequest) (*dto.PartUsageResponse, error) {
	if req.Quantity != nil && *req.Quantity <= 0 {
		return nil, apierror.Invalid("la cantidad debe ser positiva, recibido %d", *req.Quantity)
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, apierror.Invalid("el precio no puede ser negativo")
	}

	var pu *model.PartUsage
	_, err := s.compose(ctx, orderID, func(c *composition) error {
		if _, err := s.orders.FindItemTx(c.tx, orderID, itemID); err != nil {
			return lookup(err, "item", itemID)
		}
		found, err := s.orders.FindPartUsageTx(c.tx, itemID, partID)
		if err != nil {
			return lookup(err, "uso de repuesto", partID)
		}
		if req.Quantity != nil {
			delta := *req.Quantity - found.Quantity
			switch {
			case delta > 0:
				if _, err := s.inventory.ReserveTx(c.tx, partID, delta, &found.ID); err != nil {
					return err
				}
				c.consumed = append(c.consumed, partID)
			case delta < 0:
				if _, err := s.inventory.ReleaseTx(c.tx, partID, -delta, &found.ID); err != nil {
					return err
				}
			}
			found.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			found.UnitPrice = req.UnitPrice.Round(2)
		}
		found.Subtotal = model.LineSubtotal(found.Quantity, found.UnitPrice)
		pu = found
		if err := s.orders.UpdatePartUsageTx(c.tx, found); err != nil {
			return errors.Wrap(err, "update part usage")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := partUsageToResponse(pu)
	return &resp, nil
}

func (s *orderService) RemovePartUsage(ctx context.Context, orderID, itemID, partID uuid.UUID) error {
	_, err := s.compose(ctx, orderID, func(c *composition) error {
		if _, err := s.orders.FindItemTx(c.tx, orderID, itemID); err != nil {
			return lookup(err, "item", itemID)
		}
		pu, err := s.orders.FindPartUsageTx(c.tx, itemID, partID)
		if err != nil {
			return lookup(err, "uso de repuesto", partID)
		}
		if _, err := s.inventory.ReleaseTx(c.tx, partID, pu.Quantity, &pu.ID); err != nil {
			return err
		}
		if err := s.orders.DeletePartUsageTx(c.tx, pu.ID); err != nil {
			return errors.Wrap(err, "delete part usage")
		}
		return nil
	})
	return err
}
