package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrUserAlreadyExists is returned when the email is already registered.
var ErrUserAlreadyExists = errors.New("user already exists with this email")

// UserRepository provides operations on the users table.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]User, error)
	SetTeam(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) error
}
