package variable

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrVariableNotFound is returned when a variable record is not found.
var ErrVariableNotFound = errors.New("variable not found")

// ErrDuplicateKey is returned when the application already has a variable with the key.
var ErrDuplicateKey = errors.New("variable with this key already exists in this application")

// Repository provides CRUD operations on the variables table.
type Repository interface {
	Create(ctx context.Context, v *Variable) error
	GetByID(ctx context.Context, id uuid.UUID) (*Variable, error)
	GetByKey(ctx context.Context, applicationID uuid.UUID, key string) (*Variable, error)
	// ListByApplication returns the application's variables ordered by key.
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]Variable, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Variable, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error)
}
