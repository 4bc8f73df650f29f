package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Part is an inventory item. Stock never goes negative.
type Part struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"not null"`
	SKU         string          `gorm:"column:sku;type:varchar(60);uniqueIndex;not null"`
	Description string          `gorm:"type:text"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	Active      bool            `gorm:"not null"`
	SupplierID  *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Part) TableName() string { return "parts" }

func (p *Part) BeforeCreate(*gorm.DB) error {
	newID(&p.ID)
	return nil
}

// MovementType classifies a stock change.
type MovementType string

const (
	MovementIn      MovementType = "IN"      // manual receipt
	MovementOut     MovementType = "OUT"     // manual write-off
	MovementReserve MovementType = "RESERVE" // consumed by a part usage
	MovementRelease MovementType = "RELEASE" // part usage removed or reduced
)

// StockMovement records every change to a part's stock. Quantity is always
// positive; the type carries the direction.
type StockMovement struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	PartID      uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type        MovementType `gorm:"type:varchar(10);not null"`
	Quantity    int          `gorm:"not null"`
	StockBefore int          `gorm:"not null"`
	StockAfter  int          `gorm:"not null"`
	Notes       string
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"` // part usage id for RESERVE / RELEASE
	CreatedAt   time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}

// Supplier provides parts.
type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string
	Phone     string
	Active    bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Supplier) TableName() string { return "suppliers" }

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	newID(&s.ID)
	return nil
}

// SupplierPart is the catalog link between a supplier and a part it sells.
type SupplierPart struct {
	SupplierID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PartID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Cost       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time

	Part *Part `gorm:"foreignKey:PartID"`
}

func (SupplierPart) TableName() string { return "supplier_parts" }
