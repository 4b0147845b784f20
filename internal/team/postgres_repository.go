package team

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

// Create inserts a new team record. A code collision returns ErrDuplicateCode
// without aborting an enclosing transaction.
func (r *PostgresRepository) Create(ctx context.Context, t *Team) error {
	query := `
		INSERT INTO teams (name, code)
		VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, t.Name, t.Code).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("inserting team: %w", err)
	}

	return nil
}

// GetByID retrieves a single team by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	query := `
		SELECT id, name, code, created_at, updated_at
		FROM teams
		WHERE id = $1`

	return r.scanOne(ctx, query, id)
}

// GetByCode retrieves a single team by its exact code.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*Team, error) {
	query := `
		SELECT id, name, code, created_at, updated_at
		FROM teams
		WHERE code = $1`

	return r.scanOne(ctx, query, code)
}

// List retrieves all teams ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Team, error) {
	query := `
		SELECT id, name, code, created_at, updated_at
		FROM teams
		ORDER BY created_at ASC`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		err := rows.Scan(&t.ID, &t.Name, &t.Code, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	if teams == nil {
		teams = []Team{}
	}

	return teams, nil
}

// Rename updates the team's name.
func (r *PostgresRepository) Rename(ctx context.Context, id uuid.UUID, name string) (*Team, error) {
	query := `
		UPDATE teams
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, code, created_at, updated_at`

	return r.scanOne(ctx, query, id, name)
}

// Delete removes a team by its UUID. Returns ErrTeamHasDependents if users or
// applications still reference it (FK RESTRICT).
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM teams WHERE id = $1`

	result, err := database.Conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrTeamHasDependents
		}
		return fmt.Errorf("deleting team: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Team, error) {
	var t Team
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&t.ID, &t.Name, &t.Code, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team: %w", err)
	}
	return &t, nil
}
