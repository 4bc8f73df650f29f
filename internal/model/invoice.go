package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceIssued    InvoiceStatus = "ISSUED"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:  {InvoiceIssued, InvoiceCancelled},
	InvoiceIssued: {InvoicePaid, InvoiceCancelled},
}

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceIssued, InvoicePaid, InvoiceCancelled:
		return true
	}
	return false
}

func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, n := range invoiceTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Invoice is generated once from a completed order. Balance is total minus
// payments received.
type Invoice struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number    string          `gorm:"type:varchar(20);uniqueIndex;not null"`
	OrderID   uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	ClientID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status    InvoiceStatus   `gorm:"type:varchar(20);not null;index"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IssueDate time.Time       `gorm:"not null"`
	DueDate   time.Time       `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Invoice) TableName() string { return "invoices" }

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	newID(&i.ID)
	return nil
}

// LineType tells which order entity an invoice line was copied from.
type LineType string

const (
	LineService LineType = "SERVICE"
	LinePart    LineType = "PART"
)

func (t LineType) Valid() bool { return t == LineService || t == LinePart }

// InvoiceLine is a snapshot of an order item or part usage at generation time.
type InvoiceLine struct {
	InvoiceID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Type        LineType        `gorm:"type:varchar(10);primaryKey"`
	RefID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Description string          `gorm:"type:text"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Position    int             `gorm:"not null"`
}

func (InvoiceLine) TableName() string { return "invoice_lines" }

// Payment is money received against an invoice.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method    string          `gorm:"type:varchar(30);not null"`
	Reference string
	PaidAt    time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) BeforeCreate(*gorm.DB) error {
	newID(&p.ID)
	return nil
}
