package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrApplicationNotFound is returned when an application record is not found.
var ErrApplicationNotFound = errors.New("application not found")

// Repository provides CRUD operations on the applications table.
type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Application, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*Application, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
