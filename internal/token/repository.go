package token

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTokenNotFound is returned when no token matches exactly.
var ErrTokenNotFound = errors.New("api token not found")

// Repository provides operations on the api_tokens table.
type Repository interface {
	Create(ctx context.Context, t *APIToken) error
	Get(ctx context.Context, token string) (*APIToken, error)
	// Revoke marks the token revoked. changed is false when it already was.
	Revoke(ctx context.Context, token string) (changed bool, err error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]APIToken, error)
}
