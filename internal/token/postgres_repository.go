package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamvault/teamvault/internal/database"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new token record.
func (r *PostgresRepository) Create(ctx context.Context, t *APIToken) error {
	query := `
		INSERT INTO api_tokens (token, user_id)
		VALUES ($1, $2)
		RETURNING created_at, revoked`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, t.Token, t.UserID).Scan(&t.CreatedAt, &t.Revoked)
	if err != nil {
		return fmt.Errorf("inserting api token: %w", err)
	}

	return nil
}

// Get retrieves a token by exact match, revoked or not.
func (r *PostgresRepository) Get(ctx context.Context, token string) (*APIToken, error) {
	query := `
		SELECT token, user_id, created_at, revoked
		FROM api_tokens
		WHERE token = $1`

	var t APIToken
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, token).Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("querying api token: %w", err)
	}

	return &t, nil
}

// Revoke sets revoked in a single statement so a concurrent Get never observes
// a stale value after it commits.
func (r *PostgresRepository) Revoke(ctx context.Context, token string) (bool, error) {
	query := `
		WITH target AS (
			SELECT token, revoked AS was_revoked FROM api_tokens WHERE token = $1 FOR UPDATE
		)
		UPDATE api_tokens a
		SET revoked = TRUE
		FROM target
		WHERE a.token = target.token
		RETURNING NOT target.was_revoked`

	var changed bool
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, token).Scan(&changed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTokenNotFound
		}
		return false, fmt.Errorf("revoking api token: %w", err)
	}

	return changed, nil
}

// ListByUser retrieves a user's tokens, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]APIToken, error) {
	query := `
		SELECT token, user_id, created_at, revoked
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC, token ASC`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing api tokens: %w", err)
	}
	defer rows.Close()

	tokens := []APIToken{}
	for rows.Next() {
		var t APIToken
		if err := rows.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.Revoked); err != nil {
			return nil, fmt.Errorf("scanning api token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api token rows: %w", err)
	}

	return tokens, nil
}
