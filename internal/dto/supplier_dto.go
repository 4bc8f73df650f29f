package dto

import "github.com/shopspring/decimal"

type SupplierRequest struct {
	Name   string `json:"name"   validate:"required,min=1,max=200"`
	Email  string `json:"email"  validate:"omitempty,email"`
	Phone  string `json:"phone"  validate:"max=40"`
	Active *bool  `json:"active"`
}

type SupplierResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Active bool   `json:"active"`
}

type SupplierPartRequest struct {
	PartID string          `json:"partId" validate:"required,uuid"`
	Cost   decimal.Decimal `json:"cost"   validate:"gte=0"`
}

type UpdateSupplierPartRequest struct {
	Cost decimal.Decimal `json:"cost" validate:"gte=0"`
}

type SupplierPartResponse struct {
	SupplierID string          `json:"supplierId"`
	PartID     string          `json:"partId"`
	PartName   string          `json:"partName,omitempty"`
	SKU        string          `json:"sku,omitempty"`
	Cost       decimal.Decimal `json:"cost"`
}
