package application

import (
	"time"

	"github.com/google/uuid"
)

// Application represents a row in the applications table. TeamID never
// changes after creation.
type Application struct {
	ID        uuid.UUID
	Name      string
	TeamID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
