package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrDuplicateCode is returned when a team with the same code already exists.
var ErrDuplicateCode = errors.New("team code already exists")

// ErrTeamHasDependents is returned when deleting a team that still has users or applications.
var ErrTeamHasDependents = errors.New("team has users or applications")

// Repository provides CRUD operations on the teams table.
type Repository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	GetByCode(ctx context.Context, code string) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*Team, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
