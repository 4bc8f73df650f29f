package console

import "motorplus/internal/dto"

// Phase tells the consumer of an OrderView how complete it is.
type Phase int

const (
	// PhaseProvisional carries the order and its items; per-item details
	// are still loading.
	PhaseProvisional Phase = iota + 1
	// PhaseReconciled is final. Items whose details failed carry DetailErr
	// and empty sets.
	PhaseReconciled
)

func (p Phase) String() string {
	switch p {
	case PhaseProvisional:
		return "provisional"
	case PhaseReconciled:
		return "reconciled"
	}
	return "unknown"
}

type ItemView struct {
	Item        dto.OrderItemResponse
	Assignments []dto.AssignmentResponse
	Parts       []dto.PartUsageResponse
	Pending     bool
	DetailErr   error
}

// OrderView is the composed read model of one order.
type OrderView struct {
	Phase Phase
	Order dto.OrderResponse
	Items []ItemView
}

// Degraded reports whether any item failed to load its details.
func (v OrderView) Degraded() bool {
	for _, it := range v.Items {
		if it.DetailErr != nil {
			return true
		}
	}
	return false
}

// clone copies the item slice so an observer never sees later writes.
func (v OrderView) clone() OrderView {
	out := v
	out.Items = make([]ItemView, len(v.Items))
	copy(out.Items, v.Items)
	return out
}
