package variable

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/database"
)

// Service implements variable mutations and their audit entries. Callers are
// expected to have authorized the actor against the owning application.
type Service struct {
	repo  Repository
	trail audit.Recorder
	tx    database.Transactor
}

// NewService creates a new variable Service.
func NewService(repo Repository, trail audit.Recorder, tx database.Transactor) *Service {
	return &Service{repo: repo, trail: trail, tx: tx}
}

// Create adds a variable to an application. The key must not already exist
// in that application.
func (s *Service) Create(ctx context.Context, applicationID uuid.UUID, key, value string, actorID uuid.UUID) (*Variable, error) {
	if err := s.ensureKeyFree(ctx, applicationID, key, uuid.Nil); err != nil {
		return nil, err
	}

	v := &Variable{ApplicationID: applicationID, Key: key, Value: value}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}
		_, err := s.trail.Record(ctx, audit.ActionVariableCreated, audit.TargetVariable, v.ID.String(), &actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Get returns the variable with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Variable, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns an application's variables ordered by key.
func (s *Service) List(ctx context.Context, applicationID uuid.UUID) ([]Variable, error) {
	return s.repo.ListByApplication(ctx, applicationID)
}

// Update changes a variable's key and/or value and records VARIABLE_UPDATED.
func (s *Service) Update(ctx context.Context, id uuid.UUID, fields UpdateFields, actorID uuid.UUID) (*Variable, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fields.Key != nil && *fields.Key != current.Key {
		if err := s.ensureKeyFree(ctx, current.ApplicationID, *fields.Key, id); err != nil {
			return nil, err
		}
	}

	var updated *Variable
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := s.repo.Update(ctx, id, fields)
		if err != nil {
			return err
		}
		if _, err := s.trail.Record(ctx, audit.ActionVariableUpdated, audit.TargetVariable, id.String(), &actorID); err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a variable and records VARIABLE_DELETED.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		_, err := s.trail.Record(ctx, audit.ActionVariableDeleted, audit.TargetVariable, id.String(), &actorID)
		return err
	})
}

func (s *Service) ensureKeyFree(ctx context.Context, applicationID uuid.UUID, key string, self uuid.UUID) error {
	existing, err := s.repo.GetByKey(ctx, applicationID, key)
	if err == nil {
		if existing.ID != self {
			return ErrDuplicateKey
		}
		return nil
	}
	if !errors.Is(err, ErrVariableNotFound) {
		return fmt.Errorf("checking variable key: %w", err)
	}
	return nil
}
