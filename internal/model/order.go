package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of a work order.
type OrderStatus string

const (
	OrderDraft      OrderStatus = "DRAFT"
	OrderScheduled  OrderStatus = "SCHEDULED"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the forward path. CANCELLED is added for every
// non-terminal state in CanTransitionTo.
var orderTransitions = map[OrderStatus]OrderStatus{
	OrderDraft:      OrderScheduled,
	OrderScheduled:  OrderInProgress,
	OrderInProgress: OrderCompleted,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderScheduled, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition or composition change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return orderTransitions[s] == next
}

// Order is a work order for one vehicle visit. Total is always recomputed
// from items and part usages, never written by a caller.
type Order struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClientID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LicensePlate string          `gorm:"type:varchar(20);not null;index"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;index"`
	Description  string          `gorm:"type:text"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	newID(&o.ID)
	if o.Status == "" {
		o.Status = OrderDraft
	}
	return nil
}

// OrderItem is one catalog service rendered within an Order.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ServiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:text"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time

	Service     *Service     `gorm:"foreignKey:ServiceID"`
	Assignments []Assignment `gorm:"foreignKey:OrderItemID"`
	PartUsages  []PartUsage  `gorm:"foreignKey:OrderItemID"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	newID(&i.ID)
	return nil
}

// Assignment links a mechanic's labor to an OrderItem. At most one per
// (item, mechanic) pair.
type Assignment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_item_mechanic"`
	MechanicID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_item_mechanic;index"`
	EstimatedHours *int
	CreatedAt      time.Time

	Mechanic *Mechanic `gorm:"foreignKey:MechanicID"`
}

func (Assignment) TableName() string { return "assignments" }

func (a *Assignment) BeforeCreate(*gorm.DB) error {
	newID(&a.ID)
	return nil
}

// PartUsage records stock consumed against an OrderItem, one row per
// (item, part). Its quantity is always mirrored by ledger movements.
type PartUsage struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderItemID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_part_usage_item_part"`
	PartID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_part_usage_item_part;index"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time

	Part *Part `gorm:"foreignKey:PartID"`
}

func (PartUsage) TableName() string { return "part_usages" }

func (p *PartUsage) BeforeCreate(*gorm.DB) error {
	newID(&p.ID)
	return nil
}

// LineSubtotal is quantity × unit price rounded to cents.
func LineSubtotal(qty int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}
