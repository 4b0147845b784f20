package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/metrics"
	"github.com/teamvault/teamvault/internal/token"
)

// TokenLookup finds a stored token by exact match.
type TokenLookup interface {
	Lookup(ctx context.Context, raw string) (*token.APIToken, error)
}

// TeamResolver maps users and applications to teams.
type TeamResolver interface {
	TeamOfUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
	TeamOfApplication(ctx context.Context, applicationID uuid.UUID) (uuid.UUID, error)
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithAnonymousVaultRead lets requests without any credential read a vault
// after only an existence check. Such reads are not attributed or audited.
func WithAnonymousVaultRead(allow bool) GuardOption {
	return func(g *Guard) {
		g.allowAnonymous = allow
	}
}

// Guard makes access decisions.
type Guard struct {
	tokens         TokenLookup
	teams          TeamResolver
	trail          audit.Recorder
	allowAnonymous bool
}

// NewGuard creates a Guard.
func NewGuard(tokens TokenLookup, teams TeamResolver, trail audit.Recorder, opts ...GuardOption) *Guard {
	g := &Guard{tokens: tokens, teams: teams, trail: trail}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve turns credentials into a Principal. A bearer token takes precedence
// over a session. The team is read from the user store on every call.
func (g *Guard) Resolve(ctx context.Context, creds Credentials) (Principal, error) {
	if creds.BearerToken != "" {
		t, err := g.tokens.Lookup(ctx, creds.BearerToken)
		if err != nil {
			if errors.Is(err, token.ErrTokenNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, fmt.Errorf("looking up token: %w", err)
		}
		if t.Revoked {
			return nil, ErrInvalidToken
		}

		teamID, err := g.teams.TeamOfUser(ctx, t.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, err
		}
		return TokenPrincipal{ID: t.UserID, Team: teamID}, nil
	}

	if creds.Session != nil {
		teamID, err := g.teams.TeamOfUser(ctx, *creds.Session)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return nil, ErrUnauthenticated
			}
			return nil, err
		}
		return SessionPrincipal{ID: *creds.Session, Team: teamID}, nil
	}

	return nil, ErrUnauthenticated
}

// AuthorizeVaultRead decides whether the caller may read the variables of
// applicationID. On an attributed allow it appends SYNC_ENV before returning,
// so a nil error means the read is already on the audit trail. The returned
// Principal is nil for an anonymous allow.
func (g *Guard) AuthorizeVaultRead(ctx context.Context, creds Credentials, applicationID uuid.UUID) (Principal, error) {
	p, err := g.authorizeVaultRead(ctx, creds, applicationID)
	outcome := vaultOutcome(p, err)
	metrics.VaultDecisionsTotal.WithLabelValues(outcome).Inc()

	var userID string
	if p != nil {
		userID = p.UserID().String()
	}
	if err != nil {
		slog.Warn("vault read denied",
			"applicationId", applicationID,
			"userId", userID,
			"reason", outcome,
		)
		return nil, err
	}
	slog.Info("vault read allowed",
		"applicationId", applicationID,
		"userId", userID,
		"principal", Kind(p),
	)
	return p, nil
}

func (g *Guard) authorizeVaultRead(ctx context.Context, creds Credentials, applicationID uuid.UUID) (Principal, error) {
	if creds.Empty() {
		if !g.allowAnonymous {
			return nil, ErrUnauthenticated
		}
		if _, err := g.applicationTeam(ctx, applicationID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	p, err := g.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := g.AuthorizeApplication(ctx, p, applicationID); err != nil {
		return p, err
	}

	userID := p.UserID()
	if _, err := g.trail.Record(ctx, audit.ActionSyncEnv, audit.TargetApplication, applicationID.String(), &userID); err != nil {
		return p, fmt.Errorf("auditing vault read: %w", err)
	}
	return p, nil
}

// AuthorizeApplication checks that applicationID exists and belongs to the
// principal's team.
func (g *Guard) AuthorizeApplication(ctx context.Context, p Principal, applicationID uuid.UUID) error {
	callerTeam := p.TeamID()
	if callerTeam == nil {
		return ErrNoTeam
	}

	appTeam, err := g.applicationTeam(ctx, applicationID)
	if err != nil {
		return err
	}
	if appTeam != *callerTeam {
		return ErrForbidden
	}
	return nil
}

// AuthorizeTeam checks that the principal is a member of teamID.
func (g *Guard) AuthorizeTeam(p Principal, teamID uuid.UUID) error {
	callerTeam := p.TeamID()
	if callerTeam == nil {
		return ErrNoTeam
	}
	if *callerTeam != teamID {
		return ErrForbidden
	}
	return nil
}

// RequireTeam returns the principal's team or ErrNoTeam.
func RequireTeam(p Principal) (uuid.UUID, error) {
	teamID := p.TeamID()
	if teamID == nil {
		return uuid.Nil, ErrNoTeam
	}
	return *teamID, nil
}

func (g *Guard) applicationTeam(ctx context.Context, applicationID uuid.UUID) (uuid.UUID, error) {
	teamID, err := g.teams.TeamOfApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	return teamID, nil
}

func vaultOutcome(p Principal, err error) string {
	switch {
	case err == nil && p == nil:
		return "anonymous"
	case err == nil:
		return "allow"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrNoTeam):
		return "no_team"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
