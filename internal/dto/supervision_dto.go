package dto

import "time"

// CreateSupervisionRequest also accepts the supervised mechanic as
// supervisadoId, the name older clients send.
type CreateSupervisionRequest struct {
	SupervisorID  string `json:"supervisorId"  validate:"required,uuid"`
	SupervisedID  string `json:"supervisedId"  validate:"required_without=SupervisadoID,omitempty,uuid"`
	SupervisadoID string `json:"supervisadoId" validate:"omitempty,uuid"`
	OrderID       string `json:"orderId"       validate:"required,uuid"`
	Notes         string `json:"notes"         validate:"required,max=2000"`
}

func (r CreateSupervisionRequest) Supervised() string {
	return firstSet(r.SupervisedID, r.SupervisadoID)
}

// SupervisionKey identifies a supervision in DELETE query params.
type SupervisionKey struct {
	SupervisorID  string `form:"supervisorId"  validate:"required,uuid"`
	SupervisedID  string `form:"supervisedId"  validate:"required_without=SupervisadoID,omitempty,uuid"`
	SupervisadoID string `form:"supervisadoId" validate:"omitempty,uuid"`
	OrderID       string `form:"orderId"       validate:"required,uuid"`
}

func (k SupervisionKey) Supervised() string {
	return firstSet(k.SupervisedID, k.SupervisadoID)
}

func firstSet(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

type SupervisionFilter struct {
	OrderID string `form:"orderId" validate:"required,uuid"`
	PageQuery
}

type SupervisionResponse struct {
	SupervisorID string    `json:"supervisorId"`
	SupervisedID string    `json:"supervisedId"`
	OrderID      string    `json:"orderId"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}
