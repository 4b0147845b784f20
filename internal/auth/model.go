package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	TeamID       *uuid.UUID // nil until the user joins or creates a team
	CreatedAt    time.Time
}

// RegisterInput holds the fields common to every registration flow.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	TeamID   *uuid.UUID // plain Register only; ignored by the team flows
}
