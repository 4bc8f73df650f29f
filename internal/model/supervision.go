package model

import (
	"time"

	"github.com/google/uuid"
)

// Supervision is a supervisory link between two mechanics scoped to one
// order. The triple is the identity; Seq only fixes insertion order.
type Supervision struct {
	SupervisorID uuid.UUID `gorm:"type:uuid;primaryKey"`
	SupervisedID uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Notes        string    `gorm:"type:text;not null"`
	Seq          int64     `gorm:"not null;index"`
	CreatedAt    time.Time
}

func (Supervision) TableName() string { return "supervisions" }
