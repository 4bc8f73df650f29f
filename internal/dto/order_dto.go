package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateOrderRequest struct {
	ClientID     string `json:"clientId"     validate:"required,uuid"`
	LicensePlate string `json:"licensePlate" validate:"required,min=2,max=20"`
	Description  string `json:"description"  validate:"max=2000"`
}

// UpdateOrderRequest is a partial update. Status, when present, is routed
// through the transition table; total is never accepted.
type UpdateOrderRequest struct {
	ClientID     *string `json:"clientId"     validate:"omitempty,uuid"`
	LicensePlate *string `json:"licensePlate" validate:"omitempty,min=2,max=20"`
	Description  *string `json:"description"  validate:"omitempty,max=2000"`
	Status       *string `json:"status"`
}

type OrderFilter struct {
	Status       string `form:"status"`
	LicensePlate string `form:"licensePlate"`
	ClientID     string `form:"clientId"`
	PageQuery
}

type AddItemRequest struct {
	ServiceID   string           `json:"serviceId"   validate:"required,uuid"`
	Description string           `json:"description" validate:"max=500"`
	Quantity    int              `json:"quantity"    validate:"required,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"   validate:"omitempty,gte=0"`
}

type UpdateItemRequest struct {
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Quantity    *int             `json:"quantity"    validate:"omitempty,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"   validate:"omitempty,gte=0"`
}

type AddAssignmentRequest struct {
	MechanicID     string `json:"mechanicId"     validate:"required,uuid"`
	EstimatedHours *int   `json:"estimatedHours" validate:"omitempty,gte=0"`
}

type UpdateAssignmentRequest struct {
	EstimatedHours *int `json:"estimatedHours" validate:"omitempty,gte=0"`
}

type AddPartUsageRequest struct {
	PartID    string           `json:"partId"    validate:"required,uuid"`
	Quantity  int              `json:"quantity"  validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"omitempty,gte=0"`
}

type UpdatePartUsageRequest struct {
	Quantity  *int             `json:"quantity"  validate:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"omitempty,gte=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderResponse struct {
	ID           string          `json:"id"`
	ClientID     string          `json:"clientId"`
	LicensePlate string          `json:"licensePlate"`
	Status       string          `json:"status"`
	Description  string          `json:"description"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type OrderItemResponse struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	ServiceID   string          `json:"serviceId"`
	ServiceName string          `json:"serviceName,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type AssignmentResponse struct {
	ID             string `json:"id"`
	OrderItemID    string `json:"orderItemId"`
	MechanicID     string `json:"mechanicId"`
	MechanicName   string `json:"mechanicName,omitempty"`
	EstimatedHours *int   `json:"estimatedHours"`
}

type PartUsageResponse struct {
	ID          string          `json:"id"`
	OrderItemID string          `json:"orderItemId"`
	PartID      string          `json:"partId"`
	PartName    string          `json:"partName,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}
