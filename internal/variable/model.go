package variable

import (
	"time"

	"github.com/google/uuid"
)

// Variable represents a row in the variables table.
type Variable struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	Key           string
	Value         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UpdateFields holds the mutable fields of a variable. Nil fields are not updated.
type UpdateFields struct {
	Key   *string
	Value *string
}
