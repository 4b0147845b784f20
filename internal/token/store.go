package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/database"
	"github.com/teamvault/teamvault/internal/metrics"
)

const (
	// Prefix marks strings as teamvault tokens; it carries no user data.
	Prefix = "tv_"

	// RandomBytes is the amount of entropy in a token (256 bits).
	RandomBytes = 32
)

// Store issues, looks up and revokes opaque bearer tokens.
type Store struct {
	repo  Repository
	trail audit.Recorder
	tx    database.Transactor
}

// NewStore creates a new token Store.
func NewStore(repo Repository, trail audit.Recorder, tx database.Transactor) *Store {
	return &Store{repo: repo, trail: trail, tx: tx}
}

// Generate returns a new random token string.
func Generate() (string, error) {
	b := make([]byte, RandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return Prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// Fingerprint identifies a token in the audit log without revealing it.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

// Issue creates and persists a token for userID and records API_TOKEN_CREATED.
func (s *Store) Issue(ctx context.Context, userID uuid.UUID) (*APIToken, error) {
	raw, err := Generate()
	if err != nil {
		return nil, err
	}

	t := &APIToken{Token: raw, UserID: userID}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}
		_, err := s.trail.Record(ctx, audit.ActionTokenCreated, audit.TargetToken, Fingerprint(raw), &userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.TokensIssuedTotal.Inc()
	return t, nil
}

// Lookup returns the token record for an exact match. It does not reject
// revoked tokens; callers must check Revoked.
func (s *Store) Lookup(ctx context.Context, raw string) (*APIToken, error) {
	return s.repo.Get(ctx, raw)
}

// Revoke marks a token revoked. Revoking twice is not an error.
func (s *Store) Revoke(ctx context.Context, raw string) error {
	changed, err := s.repo.Revoke(ctx, raw)
	if err != nil {
		return err
	}
	if changed {
		metrics.TokensRevokedTotal.Inc()
	}
	return nil
}

// RevokeOwned revokes raw on behalf of ownerID. A token owned by someone else
// is reported as ErrTokenNotFound. API_TOKEN_REVOKED is recorded only when the
// token actually changed state.
func (s *Store) RevokeOwned(ctx context.Context, raw string, ownerID uuid.UUID) error {
	t, err := s.repo.Get(ctx, raw)
	if err != nil {
		return err
	}
	if t.UserID != ownerID {
		return ErrTokenNotFound
	}

	var changed bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		changed, err = s.repo.Revoke(ctx, raw)
		if err != nil || !changed {
			return err
		}
		_, err = s.trail.Record(ctx, audit.ActionTokenRevoked, audit.TargetToken, Fingerprint(raw), &ownerID)
		return err
	})
	if err != nil {
		return err
	}

	if changed {
		metrics.TokensRevokedTotal.Inc()
	}
	return nil
}

// ListForUser returns the user's tokens, newest first.
func (s *Store) ListForUser(ctx context.Context, userID uuid.UUID) ([]APIToken, error) {
	return s.repo.ListByUser(ctx, userID)
}
