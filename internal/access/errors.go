package access

import "errors"

var (
	// ErrUnauthenticated is returned when no usable credential was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken is returned for unknown or revoked bearer tokens.
	ErrInvalidToken = errors.New("invalid or revoked token")
	// ErrNoTeam is returned when the caller belongs to no team.
	ErrNoTeam = errors.New("user does not belong to a team")
	// ErrForbidden is returned when the resource belongs to another team.
	ErrForbidden = errors.New("resource belongs to another team")
	// ErrNotFound is returned when the target application does not exist.
	ErrNotFound = errors.New("application not found")
)
