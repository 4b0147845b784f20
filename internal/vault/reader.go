// Package vault renders an application's variables as a .env document.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/variable"
)

// ErrNotFound is returned when the application does not exist.
var ErrNotFound = errors.New("application not found")

// ApplicationGetter is the part of application.Repository the reader needs.
type ApplicationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error)
}

// VariableLister is the part of variable.Repository the reader needs.
type VariableLister interface {
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]variable.Variable, error)
}

// Reader renders vaults. It performs no access checks.
type Reader struct {
	apps ApplicationGetter
	vars VariableLister
}

// NewReader creates a Reader.
func NewReader(apps ApplicationGetter, vars VariableLister) *Reader {
	return &Reader{apps: apps, vars: vars}
}

// Render returns KEY=VALUE lines sorted by key, joined by "\n" with no
// trailing newline. Values are written verbatim; a value containing a newline
// produces a document that does not parse back to the same variables.
func (r *Reader) Render(ctx context.Context, applicationID uuid.UUID) (string, error) {
	if _, err := r.apps.GetByID(ctx, applicationID); err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("loading application: %w", err)
	}

	vars, err := r.vars.ListByApplication(ctx, applicationID)
	if err != nil {
		return "", fmt.Errorf("loading variables: %w", err)
	}

	return Format(vars), nil
}

// Format renders vars without touching any store.
func Format(vars []variable.Variable) string {
	sorted := make([]variable.Variable, len(vars))
	copy(sorted, vars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	lines := make([]string, len(sorted))
	for i, v := range sorted {
		lines[i] = v.Key + "=" + v.Value
	}
	return strings.Join(lines, "\n")
}
