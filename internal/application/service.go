package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/database"
)

// VariableRemover deletes every variable of an application.
type VariableRemover interface {
	DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error)
}

// Service implements application mutations and their audit entries.
type Service struct {
	repo  Repository
	vars  VariableRemover
	trail audit.Recorder
	tx    database.Transactor
}

// NewService creates a new application Service.
func NewService(repo Repository, vars VariableRemover, trail audit.Recorder, tx database.Transactor) *Service {
	return &Service{repo: repo, vars: vars, trail: trail, tx: tx}
}

// Create adds an application owned by teamID and records APPLICATION_CREATED.
func (s *Service) Create(ctx context.Context, name string, teamID, actorID uuid.UUID) (*Application, error) {
	a := &Application{Name: name, TeamID: teamID}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		_, err := s.trail.Record(ctx, audit.ActionApplicationCreated, audit.TargetApplication, a.ID.String(), &actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns the application with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Application, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByTeam returns a team's applications.
func (s *Service) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Application, error) {
	return s.repo.ListByTeam(ctx, teamID)
}

// Rename changes an application's name and records APPLICATION_UPDATED.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, name string, actorID uuid.UUID) (*Application, error) {
	var updated *Application
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.Rename(ctx, id, name)
		if err != nil {
			return err
		}
		if _, err := s.trail.Record(ctx, audit.ActionApplicationUpdated, audit.TargetApplication, id.String(), &actorID); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes all of the application's variables and then the application
// itself, in one transaction. If removing the variables fails the application
// row is left untouched.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if _, err := s.vars.DeleteByApplication(ctx, id); err != nil {
			return fmt.Errorf("deleting variables of application %s: %w", id, err)
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		_, err := s.trail.Record(ctx, audit.ActionApplicationDeleted, audit.TargetApplication, id.String(), &actorID)
		return err
	})
}
