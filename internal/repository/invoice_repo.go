package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const invoicePrefix = "INV-"

type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice, lines []model.InvoiceLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error)
	ExistsForOrderTx(tx *gorm.DB, orderID uuid.UUID) (bool, error)
	NextNumberTx(tx *gorm.DB) (string, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error)
	ListPending(ctx context.Context) ([]model.Invoice, error)
	UpdateTx(tx *gorm.DB, inv *model.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error

	Lines(ctx context.Context, invoiceID uuid.UUID) ([]model.InvoiceLine, error)
	LinesTx(tx *gorm.DB, invoiceID uuid.UUID) ([]model.InvoiceLine, error)
	FindLineTx(tx *gorm.DB, invoiceID uuid.UUID, lineType model.LineType, refID uuid.UUID) (*model.InvoiceLine, error)
	// CreateLineTx appends the line after the last position.
	CreateLineTx(tx *gorm.DB, line *model.InvoiceLine) error
	UpdateLineTx(tx *gorm.DB, line *model.InvoiceLine) error
	DeleteLineTx(tx *gorm.DB, line *model.InvoiceLine) error

	Payments(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error)
	CreatePaymentTx(tx *gorm.DB, p *model.Payment) error
	FindPaymentTx(tx *gorm.DB, invoiceID, paymentID uuid.UUID) (*model.Payment, error)
	DeletePaymentTx(tx *gorm.DB, id uuid.UUID) error
	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice, lines []model.InvoiceLine) error {
	if err := tx.Create(inv).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].InvoiceID = inv.ID
		lines[i].Position = i + 1
	}
	if len(lines) == 0 {
		return nil
	}
	return tx.Create(&lines).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) ExistsForOrderTx(tx *gorm.DB, orderID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&model.Invoice{}).Where("order_id = ?", orderID).Count(&n).Error
	return n > 0, err
}

// NextNumberTx returns the number after the highest issued one. The unique
// index on number rejects a concurrent duplicate.
func (r *invoiceRepo) NextNumberTx(tx *gorm.DB) (string, error) {
	var last string
	err := tx.Model(&model.Invoice{}).Select("number").Order("number DESC").Limit(1).Scan(&last).Error
	if err != nil {
		return "", err
	}
	next := 1
	if last != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last, invoicePrefix))
		if err != nil {
			return "", fmt.Errorf("malformed invoice number %q: %w", last, err)
		}
		next = n + 1
	}
	return fmt.Sprintf("%s%06d", invoicePrefix, next), nil
}

func (r *invoiceRepo) List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Invoice{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderID != "" {
		q = q.Where("order_id = ?", filter.OrderID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("number DESC").Scopes(paginate(filter.PageQuery)).Find(&out).Error
	return out, total, err
}

func (r *invoiceRepo) ListPending(ctx context.Context) ([]model.Invoice, error) {
	var out []model.Invoice
	err := r.db.WithContext(ctx).
		Where("status IN ? AND balance > 0", []model.InvoiceStatus{model.InvoiceDraft, model.InvoiceIssued}).
		Order("due_date ASC").Find(&out).Error
	return out, err
}

func (r *invoiceRepo) UpdateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Model(inv).Select("status", "total", "balance", "due_date").Updates(inv).Error
}

func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&model.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&model.InvoiceLine{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Invoice{}).Error
	})
}

func (r *invoiceRepo) Lines(ctx context.Context, invoiceID uuid.UUID) ([]model.InvoiceLine, error) {
	return r.LinesTx(r.db.WithContext(ctx), invoiceID)
}

func (r *invoiceRepo) LinesTx(tx *gorm.DB, invoiceID uuid.UUID) ([]model.InvoiceLine, error) {
	var out []model.InvoiceLine
	err := tx.Where("invoice_id = ?", invoiceID).Order("position ASC").Find(&out).Error
	return out, err
}

func lineKey(tx *gorm.DB, invoiceID uuid.UUID, lineType model.LineType, refID uuid.UUID) *gorm.DB {
	return tx.Where("invoice_id = ? AND type = ? AND ref_id = ?", invoiceID, lineType, refID)
}

func (r *invoiceRepo) FindLineTx(tx *gorm.DB, invoiceID uuid.UUID, lineType model.LineType, refID uuid.UUID) (*model.InvoiceLine, error) {
	var line model.InvoiceLine
	err := lineKey(tx, invoiceID, lineType, refID).First(&line).Error
	return &line, err
}

func (r *invoiceRepo) CreateLineTx(tx *gorm.DB, line *model.InvoiceLine) error {
	var last int
	err := tx.Model(&model.InvoiceLine{}).Where("invoice_id = ?", line.InvoiceID).
		Select("COALESCE(MAX(position), 0)").Scan(&last).Error
	if err != nil {
		return err
	}
	line.Position = last + 1
	return tx.Create(line).Error
}

func (r *invoiceRepo) UpdateLineTx(tx *gorm.DB, line *model.InvoiceLine) error {
	return lineKey(tx.Model(&model.InvoiceLine{}), line.InvoiceID, line.Type, line.RefID).
		Updates(map[string]any{
			"description": line.Description,
			"quantity":    line.Quantity,
			"unit_price":  line.UnitPrice,
			"subtotal":    line.Subtotal,
		}).Error
}

func (r *invoiceRepo) DeleteLineTx(tx *gorm.DB, line *model.InvoiceLine) error {
	return lineKey(tx, line.InvoiceID, line.Type, line.RefID).Delete(&model.InvoiceLine{}).Error
}

func (r *invoiceRepo) Payments(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Order("paid_at ASC").Find(&out).Error
	return out, err
}

func (r *invoiceRepo) CreatePaymentTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *invoiceRepo) FindPaymentTx(tx *gorm.DB, invoiceID, paymentID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := tx.Where("id = ? AND invoice_id = ?", paymentID, invoiceID).First(&p).Error
	return &p, err
}

func (r *invoiceRepo) DeletePaymentTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&model.Payment{}).Error
}
