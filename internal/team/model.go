package team

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a row in the teams table.
type Team struct {
	ID        uuid.UUID
	Name      string
	Code      string // 6 chars from CodeAlphabet, unique
	CreatedAt time.Time
	UpdatedAt time.Time
}
