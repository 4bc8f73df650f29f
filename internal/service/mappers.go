package service

import (
	"motorplus/internal/dto"
	"motorplus/internal/model"

	"github.com/google/uuid"
)

func optID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func orderToResponse(o *model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:           o.ID.String(),
		ClientID:     o.ClientID.String(),
		LicensePlate: o.LicensePlate,
		Status:       string(o.Status),
		Description:  o.Description,
		Total:        o.Total,
		CreatedAt:    o.CreatedAt,
	}
}

func itemToResponse(i *model.OrderItem) dto.OrderItemResponse {
	resp := dto.OrderItemResponse{
		ID:          i.ID.String(),
		OrderID:     i.OrderID.String(),
		ServiceID:   i.ServiceID.String(),
		Description: i.Description,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		Subtotal:    i.Subtotal,
	}
	if i.Service != nil {
		resp.ServiceName = i.Service.Name
	}
	return resp
}

func historyEntry(o *model.Order) dto.VehicleHistoryEntry {
	return dto.VehicleHistoryEntry{
		OrderID:     o.ID.String(),
		Status:      string(o.Status),
		Description: o.Description,
		Total:       o.Total,
		CreatedAt:   o.CreatedAt,
		Items:       mapSlice(o.Items, itemToResponse),
	}
}

func assignmentToResponse(a *model.Assignment) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:             a.ID.String(),
		OrderItemID:    a.OrderItemID.String(),
		MechanicID:     a.MechanicID.String(),
		EstimatedHours: a.EstimatedHours,
	}
	if a.Mechanic != nil {
		resp.MechanicName = a.Mechanic.FullName()
	}
	return resp
}

func partUsageToResponse(pu *model.PartUsage) dto.PartUsageResponse {
	resp := dto.PartUsageResponse{
		ID:          pu.ID.String(),
		OrderItemID: pu.OrderItemID.String(),
		PartID:      pu.PartID.String(),
		Quantity:    pu.Quantity,
		UnitPrice:   pu.UnitPrice,
		Subtotal:    pu.Subtotal,
	}
	if pu.Part != nil {
		resp.PartName = pu.Part.Name
	}
	return resp
}

func partToResponse(p *model.Part) dto.PartResponse {
	return dto.PartResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
		Stock:       p.Stock,
		Active:      p.Active,
		SupplierID:  optID(p.SupplierID),
	}
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID.String(),
		PartID:      m.PartID.String(),
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Notes:       m.Notes,
		ReferenceID: optID(m.ReferenceID),
		CreatedAt:   m.CreatedAt,
	}
}

func supervisionToResponse(s *model.Supervision) dto.SupervisionResponse {
	return dto.SupervisionResponse{
		SupervisorID: s.SupervisorID.String(),
		SupervisedID: s.SupervisedID.String(),
		OrderID:      s.OrderID.String(),
		Notes:        s.Notes,
		CreatedAt:    s.CreatedAt,
	}
}

func invoiceToResponse(i *model.Invoice) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:        i.ID.String(),
		Number:    i.Number,
		OrderID:   i.OrderID.String(),
		ClientID:  i.ClientID.String(),
		Status:    string(i.Status),
		Total:     i.Total,
		Balance:   i.Balance,
		IssueDate: i.IssueDate,
		DueDate:   i.DueDate,
	}
}

func lineToResponse(l *model.InvoiceLine) dto.InvoiceLineResponse {
	return dto.InvoiceLineResponse{
		Type:        string(l.Type),
		RefID:       l.RefID.String(),
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		Subtotal:    l.Subtotal,
	}
}

func paymentToResponse(p *model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:        p.ID.String(),
		InvoiceID: p.InvoiceID.String(),
		Amount:    p.Amount,
		Method:    p.Method,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
	}
}

func serviceToResponse(s *model.Service) dto.ServiceResponse {
	return dto.ServiceResponse{ID: s.ID.String(), Name: s.Name, Description: s.Description, Price: s.Price, Active: s.Active}
}

func mechanicToResponse(m *model.Mechanic) dto.MechanicResponse {
	return dto.MechanicResponse{
		ID: m.ID.String(), FirstName: m.FirstName, LastName: m.LastName,
		Phone: m.Phone, Specialization: m.Specialization, Active: m.Active,
	}
}

func clientToResponse(c *model.Client) dto.ClientResponse {
	return dto.ClientResponse{ID: c.ID.String(), FirstName: c.FirstName, LastName: c.LastName, Email: c.Email, Phone: c.Phone}
}

func vehicleToResponse(v *model.Vehicle) dto.VehicleResponse {
	return dto.VehicleResponse{
		LicensePlate: v.LicensePlate, Brand: v.Brand, Model: v.Model,
		ModelYear: v.ModelYear, ClientID: optID(v.ClientID),
	}
}

func supplierToResponse(s *model.Supplier) dto.SupplierResponse {
	return dto.SupplierResponse{ID: s.ID.String(), Name: s.Name, Email: s.Email, Phone: s.Phone, Active: s.Active}
}

func supplierPartToResponse(sp *model.SupplierPart) dto.SupplierPartResponse {
	resp := dto.SupplierPartResponse{SupplierID: sp.SupplierID.String(), PartID: sp.PartID.String(), Cost: sp.Cost}
	if sp.Part != nil {
		resp.PartName = sp.Part.Name
		resp.SKU = sp.Part.SKU
	}
	return resp
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID.String(), Username: u.Username, Email: u.Email, Role: u.Role, Active: u.Active}
}

// mapSlice converts models to responses.
func mapSlice[M any, R any](in []M, fn func(*M) R) []R {
	out := make([]R, len(in))
	for i := range in {
		out[i] = fn(&in[i])
	}
	return out
}
