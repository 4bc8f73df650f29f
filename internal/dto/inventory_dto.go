package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreatePartRequest struct {
	Name        string          `json:"name"        validate:"required,min=1,max=200"`
	SKU         string          `json:"sku"         validate:"required,min=1,max=60"`
	Description string          `json:"description" validate:"max=2000"`
	UnitPrice   decimal.Decimal `json:"unitPrice"   validate:"gte=0"`
	Stock       int             `json:"stock"       validate:"gte=0"`
	SupplierID  *string         `json:"supplierId"  validate:"omitempty,uuid"`
}

// UpdatePartRequest never touches stock: stock only moves through the ledger.
type UpdatePartRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=1,max=200"`
	SKU         *string          `json:"sku"         validate:"omitempty,min=1,max=60"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"   validate:"omitempty,gte=0"`
	SupplierID  *string          `json:"supplierId"  validate:"omitempty,uuid"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type PartFilter struct {
	Search     string `form:"search"`
	ActiveOnly bool   `form:"activeOnly"`
	PageQuery
}

type MovementRequest struct {
	Type     string `json:"type"     validate:"required,oneof=IN OUT"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Notes    string `json:"notes"    validate:"max=500"`
}

type PartResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
	SupplierID  *string         `json:"supplierId"`
}

type StockResponse struct {
	PartID string `json:"partId"`
	Stock  int    `json:"stock"`
}

type MovementResponse struct {
	ID          string    `json:"id"`
	PartID      string    `json:"partId"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	StockBefore int       `json:"stockBefore"`
	StockAfter  int       `json:"stockAfter"`
	Notes       string    `json:"notes"`
	ReferenceID *string   `json:"referenceId"`
	CreatedAt   time.Time `json:"createdAt"`
}
