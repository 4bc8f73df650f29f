package dto

import "github.com/shopspring/decimal"

type CatalogFilter struct {
	Search     string `form:"search"`
	ActiveOnly bool   `form:"activeOnly"`
	PageQuery
}

type ServiceRequest struct {
	Name        string          `json:"name"        validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"       validate:"gte=0"`
	Active      *bool           `json:"active"`
}

type ServiceResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
}

type MechanicRequest struct {
	FirstName      string `json:"firstName"      validate:"required,min=1,max=100"`
	LastName       string `json:"lastName"       validate:"required,min=1,max=100"`
	Phone          string `json:"phone"          validate:"max=40"`
	Specialization string `json:"specialization" validate:"max=100"`
	Active         *bool  `json:"active"`
}

type MechanicResponse struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
	Active         bool   `json:"active"`
}
