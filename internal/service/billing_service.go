package service

import (
	"context"
	"strings"
	"time"

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

// BillingService turns completed orders into invoices and tracks their
// payments.
type BillingService interface {
	GenerateFromOrder(ctx context.Context, orderID uuid.UUID) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter dto.InvoiceFilter) (dto.Page[dto.InvoiceResponse], error)
	GetLines(ctx context.Context, id uuid.UUID, q dto.PageQuery) (dto.Page[dto.InvoiceLineResponse], error)
	Document(ctx context.Context, id uuid.UUID) (*dto.InvoiceDocument, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error

	AddLine(ctx context.Context, id uuid.UUID, req dto.AddInvoiceLineRequest) (*dto.InvoiceLineResponse, error)
	UpdateLine(ctx context.Context, id uuid.UUID, lineType string, refID uuid.UUID, req dto.UpdateInvoiceLineRequest) (*dto.InvoiceLineResponse, error)
	RemoveLine(ctx context.Context, id uuid.UUID, lineType string, refID uuid.UUID) error

	ListPayments(ctx context.Context, id uuid.UUID, q dto.PageQuery) (dto.Page[dto.PaymentResponse], error)
	AddPayment(ctx context.Context, id uuid.UUID, req dto.AddPaymentRequest) (*dto.PaymentResponse, error)
	RemovePayment(ctx context.Context, id, paymentID uuid.UUID) error
}

type billingService struct {
	invoices repository.InvoiceRepository
	orders   repository.OrderRepository
	clients  repository.ClientRepository
	notifier Notifier
	dueDays  int
	pageSize int
	now      func() time.Time
}

func NewBillingService(
	invoices repository.InvoiceRepository,
	orders repository.OrderRepository,
	clients repository.ClientRepository,
	notifier Notifier,
	dueDays, pageSize int,
) BillingService {
	return &billingService{
		invoices: invoices,
		orders:   orders,
		clients:  clients,
		notifier: notifier,
		dueDays:  dueDays,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// GenerateFromOrder snapshots a COMPLETED order into a DRAFT invoice. An
// order can be invoiced once.
func (s *billingService) GenerateFromOrder(ctx context.Context, orderID uuid.UUID) (*dto.InvoiceResponse, error) {
	var inv *model.Invoice
	err := runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		o, err := s.orders.FindForUpdateTx(tx, orderID)
		if err != nil {
			return lookup(err, "orden", orderID)
		}
		if o.Status != model.OrderCompleted {
			return apierror.E(apierror.KindInvalidState, "la orden %s esta %s; solo se facturan ordenes COMPLETED", orderID, o.Status)
		}
		exists, err := s.invoices.ExistsForOrderTx(tx, orderID)
		if err != nil {
			return errors.Wrap(err, "check invoice")
		}
		if exists {
			return duplicateInvoice(orderID)
		}

		lines, err := s.snapshotLinesTx(tx, orderID)
		if err != nil {
			return err
		}
		number, err := s.invoices.NextNumberTx(tx)
		if err != nil {
			return errors.Wrap(err, "next invoice number")
		}
		issued := s.now()
		inv = &model.Invoice{
			Number:    number,
			OrderID:   orderID,
			ClientID:  o.ClientID,
			Status:    model.InvoiceDraft,
			Total:     o.Total,
			Balance:   o.Total,
			IssueDate: issued,
			DueDate:   issued.AddDate(0, 0, s.dueDays),
		}
		if err := s.invoices.CreateTx(tx, inv, lines); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateInvoice(orderID)
			}
			return errors.Wrap(err, "create invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("invoice", inv.Number).Str("order_id", orderID.String()).Str("total", inv.Total.StringFixed(2)).Msg("factura generada")
	resp := invoiceToResponse(inv)
	return &resp, nil
}

func duplicateInvoice(orderID uuid.UUID) error {
	return apierror.E(apierror.KindDuplicateInvoice, "la orden %s ya tiene una factura", orderID)
}

// snapshotLinesTx copies every item and part usage as it is right now.
func (s *billingService) snapshotLinesTx(tx *gorm.DB, orderID uuid.UUID) ([]model.InvoiceLine, error) {
	items, err := s.orders.ListItemsTx(tx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "load items")
	}
	usages, err := s.orders.ListPartUsagesByOrderTx(tx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "load part usages")
	}
	lines := make([]model.InvoiceLine, 0, len(items)+len(usages))
	for _, it := range items {
		desc := it.Description
		if desc == "" && it.Service != nil {
			desc = it.Service.Name
		}
		lines = append(lines, model.InvoiceLine{
			Type: model.LineService, RefID: it.ID, Description: desc,
			Quantity: it.Quantity, UnitPrice: it.UnitPrice, Subtotal: it.Subtotal,
		})
	}
	for _, pu := range usages {
		var desc string
		if pu.Part != nil {
			desc = pu.Part.Name
		}
		lines = append(lines, model.InvoiceLine{
			Type: model.LinePart, RefID: pu.ID, Description: desc,
			Quantity: pu.Quantity, UnitPrice: pu.UnitPrice, Subtotal: pu.Subtotal,
		})
	}
	return lines, nil
}

func (s *billingService) GetInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "factura", id)
	}
	resp := invoiceToResponse(inv)
	return &resp, nil
}

func (s *billingService) ListInvoices(ctx context.Context, filter dto.InvoiceFilter) (dto.Page[dto.InvoiceResponse], error) {
	filter.PageQuery = filter.PageQuery.Normalize(s.pageSize)
	if filter.Status != "" && !model.InvoiceStatus(filter.Status).Valid() {
		return dto.Page[dto.InvoiceResponse]{}, apierror.Invalid("estado de factura invalido: %q", filter.Status)
	}
	rows, total, err := s.invoices.List(ctx, filter)
	if err != nil {
		return dto.Page[dto.InvoiceResponse]{}, errors.Wrap(err, "list invoices")
	}
	return dto.NewPage(mapSlice(rows, invoiceToResponse), total, filter.PageQuery), nil
}

func (s *billingService) GetLines(ctx context.Context, id uuid.UUID, q dto.PageQuery) (dto.Page[dto.InvoiceLineResponse], error) {
	if _, err := s.invoices.FindByID(ctx, id); err != nil {
		return dto.Page[dto.InvoiceLineResponse]{}, lookup(err, "factura", id)
	}
	lines, err := s.invoices.Lines(ctx, id)
	if err != nil {
		return dto.Page[dto.InvoiceLineResponse]{}, errors.Wrap(err, "load invoice lines")
	}
	return dto.SlicePage(mapSlice(lines, lineToResponse), q.Normalize(s.pageSize)), nil
}

func (s *billingService) UpdateInvoice(ctx context.Context, id uuid.UUID, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	var next model.InvoiceStatus
	if req.Status != nil {
		next = model.InvoiceStatus(*req.Status)
		if !next.Valid() {
			return nil, apierror.Invalid("estado de factura invalido: %q", *req.Status)
		}
	}

	var inv *model.Invoice
	var issued bool
	err := runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		found, err := s.invoices.FindForUpdateTx(tx, id)
		if err != nil {
			return lookup(err, "factura", id)
		}
		if next != "" && next != found.Status {
			if !found.Status.CanTransitionTo(next) {
				return apierror.E(apierror.KindIllegalTransition, "transicion invalida de %s a %s", found.Status, next)
			}
			if next == model.InvoicePaid && !found.Balance.IsZero() {
				return apierror.E(apierror.KindInvalidState, "la factura %s tiene saldo pendiente %s", found.Number, found.Balance.StringFixed(2))
			}
			issued = next == model.InvoiceIssued
			found.Status = next
		}
		if req.DueDate != nil {
			if req.DueDate.Before(found.IssueDate) {
				return apierror.Invalid("el vencimiento no puede ser anterior a la emision")
			}
			found.DueDate = *req.DueDate
		}
		inv = found
		if err := s.invoices.UpdateTx(tx, found); err != nil {
			return errors.Wrap(err, "update invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if issued {
		s.notifyIssued(ctx, inv)
	}
	resp := invoiceToResponse(inv)
	return &resp, nil
}

// notifyIssued enqueues the client email when both a notifier and an
// address exist. Failures only get logged.
func (s *billingService) notifyIssued(ctx context.Context, inv *model.Invoice) {
	if s.notifier == nil {
		return
	}
	c, err := s.clients.FindByID(ctx, inv.ClientID)
	if err != nil || c.Email == "" {
		return
	}
	if err := s.notifier.InvoiceIssued(ctx, *inv, c.Email); err != nil {
		log.Warn().Err(err).Str("invoice", inv.Number).Msg("billing: invoice email not enqueued")
	}
}

func (s *billingService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return lookup(err, "factura", id)
	}
	if inv.Status != model.InvoiceDraft && inv.Status != model.InvoiceCancelled {
		return apierror.E(apierror.KindInvalidState, "solo se eliminan facturas DRAFT o CANCELLED; %s esta %s", inv.Number, inv.Status)
	}
	if err := s.invoices.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete invoice")
	}
	return nil
}

// Document loads an invoice with its lines, payments and client name.
func (s *billingService) Document(ctx context.Context, id uuid.UUID) (*dto.InvoiceDocument, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "factura", id)
	}
	lines, err := s.invoices.Lines(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "load invoice lines")
	}
	payments, err := s.invoices.Payments(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "load payments")
	}
	doc := &dto.InvoiceDocument{
		Invoice:  invoiceToResponse(inv),
		Lines:    mapSlice(lines, lineToResponse),
		Payments: mapSlice(payments, paymentToResponse),
	}
	client, err := s.clients.FindByID(ctx, inv.ClientID)
	switch {
	case err == nil:
		doc.Client = client.FirstName + " " + client.LastName
	case errors.Is(err, gorm.ErrRecordNotFound):
		doc.Client = inv.ClientID.String()
	default:
		return nil, errors.Wrap(err, "load client")
	}
	return doc, nil
}

// ── Lines ────────────────────────────────────────────────────────────────────

func parseLineType(raw string) (model.LineType, error) {
	t := model.LineType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", apierror.Invalid("tipo de linea invalido: %q", raw)
	}
	return t, nil
}

// editDraft runs fn on a locked DRAFT invoice, then recomputes its total
// from the lines. The balance keeps whatever was already paid.
func (s *billingService) editDraft(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, inv *model.Invoice) error) error {
	return runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		inv, err := s.invoices.FindForUpdateTx(tx, id)
		if err != nil {
			return lookup(err, "factura", id)
		}
		if inv.Status != model.InvoiceDraft {
			return apierror.E(apierror.KindInvalidState, "solo se editan lineas de facturas DRAFT; %s esta %s", inv.Number, inv.Status)
		}
		if err := fn(tx, inv); err != nil {
			return err
		}
		lines, err := s.invoices.LinesTx(tx, id)
		if err != nil {
			return errors.Wrap(err, "load invoice lines")
		}
		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.Subtotal)
		}
		paid := inv.Total.Sub(inv.Balance)
		if total.LessThan(paid) {
			return apierror.Invalid("el total %s quedaria por debajo de lo pagado %s", total.StringFixed(2), paid.StringFixed(2))
		}
		inv.Total = total
		inv.Balance = total.Sub(paid)
		if err := s.invoices.UpdateTx(tx, inv); err != nil {
			return errors.Wrap(err, "update invoice total")
		}
		return nil
	})
}

func (s *billingService) AddLine(ctx context.Context, id uuid.UUID, req dto.AddInvoiceLineRequest) (*dto.InvoiceLineResponse, error) {
	lineType, err := parseLineType(req.Type)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apierror.Invalid("la cantidad debe ser positiva")
	}
	if req.UnitPrice.IsNegative() {
		return nil, apierror.Invalid("el precio no puede ser negativo")
	}
	refID := uuid.New()
	if req.RefID != "" {
		if refID, err = parseID("refId", req.RefID); err != nil {
			return nil, err
		}
	}
	price := req.UnitPrice.Round(2)
	line := &model.InvoiceLine{
		InvoiceID:   id,
		Type:        lineType,
		RefID:       refID,
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		UnitPrice:   price,
		Subtotal:    model.LineSubtotal(req.Quantity, price),
	}
	err = s.editDraft(ctx, id, func(tx *gorm.DB, _ *model.Invoice) error {
		if _, err := s.invoices.FindLineTx(tx, id, lineType, refID); err == nil {
			return apierror.Invalid("la factura ya tiene la linea %s %s", lineType, refID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "check invoice line")
		}
		if err := s.invoices.CreateLineTx(tx, line); err != nil {
			return errors.Wrap(err, "create invoice line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := lineToResponse(line)
	return &resp, nil
}

func (s *billingService) UpdateLine(ctx context.Context, id uuid.UUID, rawType string, refID uuid.UUID, req dto.UpdateInvoiceLineRequest) (*dto.InvoiceLineResponse, error) {
	lineType, err := parseLineType(rawType)
	if err != nil {
		return nil, err
	}
	var line *model.InvoiceLine
	err = s.editDraft(ctx, id, func(tx *gorm.DB, _ *model.Invoice) error {
		found, err := s.invoices.FindLineTx(tx, id, lineType, refID)
		if err != nil {
			return lookup(err, "linea", refID)
		}
		if req.Description != nil {
			found.Description = strings.TrimSpace(*req.Description)
		}
		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				return apierror.Invalid("la cantidad debe ser positiva")
			}
			found.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			if req.UnitPrice.IsNegative() {
				return apierror.Invalid("el precio no puede ser negativo")
			}
			found.UnitPrice = req.UnitPrice.Round(2)
		}
		found.Subtotal = model.LineSubtotal(found.Quantity, found.UnitPrice)
		line = found
		if err := s.invoices.UpdateLineTx(tx, found); err != nil {
			return errors.Wrap(err, "update invoice line")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := lineToResponse(line)
	return &resp, nil
}

func (s *billingService) RemoveLine(ctx context.Context, id uuid.UUID, rawType string, refID uuid.UUID) error {
	lineType, err := parseLineType(rawType)
	if err != nil {
		return err
	}
	return s.editDraft(ctx, id, func(tx *gorm.DB, _ *model.Invoice) error {
		line, err := s.invoices.FindLineTx(tx, id, lineType, refID)
		if err != nil {
			return lookup(err, "linea", refID)
		}
		if err := s.invoices.DeleteLineTx(tx, line); err != nil {
			return errors.Wrap(err, "delete invoice line")
		}
		return nil
	})
}

// ── Payments ─────────────────────────────────────────────────────────────────

func (s *billingService) ListPayments(ctx context.Context, id uuid.UUID, q dto.PageQuery) (dto.Page[dto.PaymentResponse], error) {
	if _, err := s.invoices.FindByID(ctx, id); err != nil {
		return dto.Page[dto.PaymentResponse]{}, lookup(err, "factura", id)
	}
	rows, err := s.invoices.Payments(ctx, id)
	if err != nil {
		return dto.Page[dto.PaymentResponse]{}, errors.Wrap(err, "load payments")
	}
	return dto.SlicePage(mapSlice(rows, paymentToResponse), q.Normalize(s.pageSize)), nil
}

func (s *billingService) AddPayment(ctx context.Context, id uuid.UUID, req dto.AddPaymentRequest) (*dto.PaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, apierror.Invalid("el monto debe ser positivo")
	}
	amount := req.Amount.Round(2)

	var p *model.Payment
	err := runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		inv, err := s.invoices.FindForUpdateTx(tx, id)
		if err != nil {
			return lookup(err, "factura", id)
		}
		if inv.Status != model.InvoiceIssued {
			return apierror.E(apierror.KindInvalidState, "solo se registran pagos en facturas ISSUED; %s esta %s", inv.Number, inv.Status)
		}
		if amount.GreaterThan(inv.Balance) {
			return apierror.Invalid("el monto %s supera el saldo %s", amount.StringFixed(2), inv.Balance.StringFixed(2))
		}
		paidAt := s.now()
		if req.PaidAt != nil {
			paidAt = *req.PaidAt
		}
		p = &model.Payment{InvoiceID: id, Amount: amount, Method: req.Method, Reference: req.Reference, PaidAt: paidAt}
		if err := s.invoices.CreatePaymentTx(tx, p); err != nil {
			return errors.Wrap(err, "create payment")
		}
		inv.Balance = inv.Balance.Sub(amount)
		if inv.Balance.IsZero() {
			inv.Status = model.InvoicePaid
		}
		if err := s.invoices.UpdateTx(tx, inv); err != nil {
			return errors.Wrap(err, "update invoice balance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := paymentToResponse(p)
	return &resp, nil
}

func (s *billingService) RemovePayment(ctx context.Context, id, paymentID uuid.UUID) error {
	return runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		inv, err := s.invoices.FindForUpdateTx(tx, id)
		if err != nil {
			return lookup(err, "factura", id)
		}
		if inv.Status == model.InvoiceCancelled {
			return apierror.E(apierror.KindInvalidState, "la factura %s esta anulada", inv.Number)
		}
		p, err := s.invoices.FindPaymentTx(tx, id, paymentID)
		if err != nil {
			return lookup(err, "pago", paymentID)
		}
		if err := s.invoices.DeletePaymentTx(tx, p.ID); err != nil {
			return errors.Wrap(err, "delete payment")
		}
		inv.Balance = inv.Balance.Add(p.Amount)
		if inv.Status == model.InvoicePaid {
			inv.Status = model.InvoiceIssued
		}
		if err := s.invoices.UpdateTx(tx, inv); err != nil {
			return errors.Wrap(err, "update invoice balance")
		}
		return nil
	})
}
