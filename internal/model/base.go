package model

import "github.com/google/uuid"

// newID assigns a v4 UUID when the caller left the key empty. IDs are
// generated in Go so the schema does not depend on gen_random_uuid().
func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Client{},
		&Vehicle{},
		&Mechanic{},
		&Service{},
		&Supplier{},
		&Part{},
		&SupplierPart{},
		&StockMovement{},
		&Order{},
		&OrderItem{},
		&Assignment{},
		&PartUsage{},
		&Supervision{},
		&Invoice{},
		&InvoiceLine{},
		&Payment{},
	}
}
