package application

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

// Create inserts a new application record.
func (r *PostgresRepository) Create(ctx context.Context, a *Application) error {
	query := `
		INSERT INTO applications (name, team_id)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, a.Name, a.TeamID).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting application: %w", err)
	}

	return nil
}

// GetByID retrieves a single application by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	query := `
		SELECT id, name, team_id, created_at, updated_at
		FROM applications
		WHERE id = $1`

	return r.scanOne(ctx, query, id)
}

// ListByTeam retrieves a team's applications ordered by creation time.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Application, error) {
	query := `
		SELECT id, name, team_id, created_at, updated_at
		FROM applications
		WHERE team_id = $1
		ORDER BY created_at ASC`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.Name, &a.TeamID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning application row: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating application rows: %w", err)
	}

	return apps, nil
}

// Rename updates the application's name. The owning team is never changed.
func (r *PostgresRepository) Rename(ctx context.Context, id uuid.UUID, name string) (*Application, error) {
	query := `
		UPDATE applications
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, team_id, created_at, updated_at`

	return r.scanOne(ctx, query, id, name)
}

// Delete removes the application row. Its variables must already be gone.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting application: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Application, error) {
	var a Application
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&a.ID, &a.Name, &a.TeamID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("querying application: %w", err)
	}
	return &a, nil
}
