// Package membership answers which team a user or an application belongs to.
// Every answer is read from the stores on demand; nothing is cached.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/auth"
)

// UserGetter is the part of auth.UserRepository the resolver reads.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

// ApplicationGetter is the part of application.Repository the resolver reads.
type ApplicationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error)
}

// Resolver maps users and applications to their owning team.
type Resolver struct {
	users UserGetter
	apps  ApplicationGetter
}

// NewResolver creates a Resolver.
func NewResolver(users UserGetter, apps ApplicationGetter) *Resolver {
	return &Resolver{users: users, apps: apps}
}

// TeamOfUser returns the user's team, or nil when the user has none.
// auth.ErrUserNotFound is returned for an unknown user.
func (r *Resolver) TeamOfUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolving team of user %s: %w", userID, err)
	}
	return u.TeamID, nil
}

// TeamOfApplication returns the team owning the application.
// application.ErrApplicationNotFound is returned for an unknown application.
func (r *Resolver) TeamOfApplication(ctx context.Context, applicationID uuid.UUID) (uuid.UUID, error) {
	a, err := r.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("resolving team of application %s: %w", applicationID, err)
	}
	return a.TeamID, nil
}
