// Package access decides who may act on which team's resources.
//
// Identity arrives as Credentials (a bearer token, a session user id, or
// neither). The Guard resolves it once into a Principal and every handler
// downstream works with that value.
package access

import "github.com/google/uuid"

// Principal is the authenticated caller. It is either a SessionPrincipal or
// a TokenPrincipal.
type Principal interface {
	UserID() uuid.UUID
	// TeamID returns nil when the user belongs to no team.
	TeamID() *uuid.UUID
	principal()
}

// SessionPrincipal is a caller authenticated by the session cookie.
type SessionPrincipal struct {
	ID   uuid.UUID
	Team *uuid.UUID
}

func (p SessionPrincipal) UserID() uuid.UUID  { return p.ID }
func (p SessionPrincipal) TeamID() *uuid.UUID { return p.Team }
func (SessionPrincipal) principal()           {}

// TokenPrincipal is a caller authenticated by an API bearer token.
type TokenPrincipal struct {
	ID   uuid.UUID
	Team *uuid.UUID
}

func (p TokenPrincipal) UserID() uuid.UUID  { return p.ID }
func (p TokenPrincipal) TeamID() *uuid.UUID { return p.Team }
func (TokenPrincipal) principal()           {}

// Credentials is the raw identity input of one request.
type Credentials struct {
	BearerToken string
	Session     *uuid.UUID // user id carried by a valid session cookie
}

// Empty reports whether no credential was presented.
func (c Credentials) Empty() bool {
	return c.BearerToken == "" && c.Session == nil
}

// Kind names the principal variant for logs and JSON output.
func Kind(p Principal) string {
	switch p.(type) {
	case TokenPrincipal:
		return "token"
	case SessionPrincipal:
		return "session"
	default:
		return "anonymous"
	}
}
