package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a catalog entry for billable workshop labor.
type Service struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Active      bool            `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Service) TableName() string { return "services" }

func (s *Service) BeforeCreate(*gorm.DB) error {
	newID(&s.ID)
	return nil
}

// Mechanic is a member of the workshop roster.
type Mechanic struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName      string    `gorm:"not null"`
	LastName       string    `gorm:"not null"`
	Phone          string
	Specialization string
	Active         bool `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Mechanic) TableName() string { return "mechanics" }

func (m *Mechanic) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}

func (m Mechanic) FullName() string { return m.FirstName + " " + m.LastName }

// Client owns vehicles and places orders.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	Email     string    `gorm:"index"`
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Client) TableName() string { return "clients" }

func (c *Client) BeforeCreate(*gorm.DB) error {
	newID(&c.ID)
	return nil
}

// Vehicle is keyed by its license plate, stored upper-cased.
type Vehicle struct {
	LicensePlate string     `gorm:"type:varchar(20);primaryKey"`
	Brand        string     `gorm:"not null"`
	Model        string     `gorm:"not null"`
	ModelYear    int
	ClientID     *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Vehicle) TableName() string { return "vehicles" }
