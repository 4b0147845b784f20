package variable

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const variableColumns = "id, application_id, key, value, created_at, updated_at"

// Create inserts a new variable. A duplicate (application, key) pair returns
// ErrDuplicateKey without aborting an enclosing transaction.
func (r *PostgresRepository) Create(ctx context.Context, v *Variable) error {
	query := `
		INSERT INTO variables (application_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (application_id, key) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, v.ApplicationID, v.Key, v.Value).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("inserting variable: %w", err)
	}

	return nil
}

// GetByID retrieves a single variable by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByKey retrieves the variable with the given key in an application.
func (r *PostgresRepository) GetByKey(ctx context.Context, applicationID uuid.UUID, key string) (*Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables WHERE application_id = $1 AND key = $2`
	return r.scanOne(ctx, query, applicationID, key)
}

// ListByApplication retrieves an application's variables ordered by key.
func (r *PostgresRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]Variable, error) {
	query := `SELECT ` + variableColumns + ` FROM variables WHERE application_id = $1 ORDER BY key ASC`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("listing variables: %w", err)
	}
	defer rows.Close()

	vars := []Variable{}
	for rows.Next() {
		var v Variable
		if err := rows.Scan(&v.ID, &v.ApplicationID, &v.Key, &v.Value, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning variable row: %w", err)
		}
		vars = append(vars, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating variable rows: %w", err)
	}

	return vars, nil
}

// Update applies non-nil fields and returns the updated row.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Variable, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{id}
	argIdx := 2

	if fields.Key != nil {
		setClauses = append(setClauses, fmt.Sprintf("key = $%d", argIdx))
		args = append(args, *fields.Key)
		argIdx++
	}
	if fields.Value != nil {
		setClauses = append(setClauses, fmt.Sprintf("value = $%d", argIdx))
		args = append(args, *fields.Value)
	}

	query := fmt.Sprintf(`
		UPDATE variables
		SET %s
		WHERE id = $1
		RETURNING %s`, strings.Join(setClauses, ", "), variableColumns)

	v, err := r.scanOne(ctx, query, args...)
	if err != nil && database.IsUniqueViolation(err) {
		return nil, ErrDuplicateKey
	}
	return v, err
}

// Delete removes a single variable.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM variables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting variable: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrVariableNotFound
	}
	return nil
}

// DeleteByApplication removes every variable of an application and returns how many were removed.
func (r *PostgresRepository) DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error) {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM variables WHERE application_id = $1`, applicationID)
	if err != nil {
		return 0, fmt.Errorf("deleting application variables: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Variable, error) {
	var v Variable
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.ApplicationID, &v.Key, &v.Value, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariableNotFound
		}
		return nil, fmt.Errorf("querying variable: %w", err)
	}
	return &v, nil
}
