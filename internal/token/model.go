package token

import (
	"time"

	"github.com/google/uuid"
)

// APIToken represents a row in the api_tokens table. Only Revoked ever changes
// after issue; rows are never deleted.
type APIToken struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	Revoked   bool
}
