package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type UpdateInvoiceRequest struct {
	Status  *string    `json:"status"  validate:"omitempty,oneof=DRAFT ISSUED PAID CANCELLED"`
	DueDate *time.Time `json:"dueDate"`
}

type InvoiceFilter struct {
	Status  string `form:"status"`
	OrderID string `form:"orderId"`
	PageQuery
}

type AddPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"    validate:"required,gt=0"`
	Method    string          `json:"method"    validate:"required,oneof=CASH CARD TRANSFER OTHER"`
	Reference string          `json:"reference" validate:"max=100"`
	PaidAt    *time.Time      `json:"paidAt"`
}

type InvoiceResponse struct {
	ID        string          `json:"id"`
	Number    string          `json:"number"`
	OrderID   string          `json:"orderId"`
	ClientID  string          `json:"clientId"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Balance   decimal.Decimal `json:"balance"`
	IssueDate time.Time       `json:"issueDate"`
	DueDate   time.Time       `json:"dueDate"`
}

// AddInvoiceLineRequest adds a line to a DRAFT invoice. An empty RefID
// makes a manual line with a fresh reference.
type AddInvoiceLineRequest struct {
	Type        string          `json:"type"        validate:"required,oneof=SERVICE PART"`
	RefID       string          `json:"refId"       validate:"omitempty,uuid"`
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    int             `json:"quantity"    validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice"   validate:"gte=0"`
}

type UpdateInvoiceLineRequest struct {
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Quantity    *int             `json:"quantity"    validate:"omitempty,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"   validate:"omitempty,gte=0"`
}

type InvoiceLineResponse struct {
	Type        string          `json:"type"`
	RefID       string          `json:"refId"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type PaymentResponse struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoiceId"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	PaidAt    time.Time       `json:"paidAt"`
}

// InvoiceDocument gathers what a printed invoice shows.
type InvoiceDocument struct {
	Client   string
	Invoice  InvoiceResponse
	Lines    []InvoiceLineResponse
	Payments []PaymentResponse
}
