package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/database"
)

// ErrCodeSpaceExhausted is returned when no free team code was found within
// the configured number of attempts.
var ErrCodeSpaceExhausted = errors.New("could not generate a unique team code")

// DefaultMaxCodeAttempts bounds the retry loop of Provision.
const DefaultMaxCodeAttempts = 50

// Service implements team lifecycle operations and their audit entries.
type Service struct {
	repo        Repository
	trail       audit.Recorder
	tx          database.Transactor
	generate    func() (string, error)
	maxAttempts int
}

// NewService creates a new team Service.
func NewService(repo Repository, trail audit.Recorder, tx database.Transactor, maxAttempts int) *Service {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxCodeAttempts
	}
	return &Service{
		repo:        repo,
		trail:       trail,
		tx:          tx,
		generate:    GenerateCode,
		maxAttempts: maxAttempts,
	}
}

// WithCodeGenerator replaces the code source, mainly for tests.
func (s *Service) WithCodeGenerator(gen func() (string, error)) *Service {
	s.generate = gen
	return s
}

// Provision inserts a team with a freshly generated unique code. It writes no
// audit entry; callers record TEAM_CREATED once the surrounding flow succeeds.
// On a collision the whole code is redrawn.
func (s *Service) Provision(ctx context.Context, name string) (*Team, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("generating team code: %w", err)
		}

		_, err = s.repo.GetByCode(ctx, code)
		if err == nil {
			slog.Debug("team code collision", "attempt", attempt)
			continue
		}
		if !errors.Is(err, ErrTeamNotFound) {
			return nil, fmt.Errorf("checking team code: %w", err)
		}

		t := &Team{Name: name, Code: code}
		if err := s.repo.Create(ctx, t); err != nil {
			if errors.Is(err, ErrDuplicateCode) {
				continue
			}
			return nil, err
		}
		return t, nil
	}

	return nil, ErrCodeSpaceExhausted
}

// Create provisions a team on behalf of actorID and records TEAM_CREATED.
func (s *Service) Create(ctx context.Context, name string, actorID uuid.UUID) (*Team, error) {
	var created *Team
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.Provision(ctx, name)
		if err != nil {
			return err
		}
		if _, err := s.trail.Record(ctx, audit.ActionTeamCreated, audit.TargetTeam, t.ID.String(), &actorID); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the team with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Team, error) {
	return s.repo.GetByID(ctx, id)
}

// FindByCode looks a team up by code, case-insensitively. A code that could
// never have been generated is reported as ErrTeamNotFound without a lookup.
func (s *Service) FindByCode(ctx context.Context, code string) (*Team, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return nil, ErrTeamNotFound
	}
	return s.repo.GetByCode(ctx, code)
}

// List returns every team.
func (s *Service) List(ctx context.Context) ([]Team, error) {
	return s.repo.List(ctx)
}

// Rename changes the team name and records TEAM_UPDATED.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, name string, actorID uuid.UUID) (*Team, error) {
	var updated *Team
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.repo.Rename(ctx, id, name)
		if err != nil {
			return err
		}
		if _, err := s.trail.Record(ctx, audit.ActionTeamUpdated, audit.TargetTeam, id.String(), &actorID); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a team that no longer has users or applications and records
// TEAM_DELETED.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		_, err := s.trail.Record(ctx, audit.ActionTeamDeleted, audit.TargetTeam, id.String(), &actorID)
		return err
	})
}

// RecordCodeViewed records that actorID displayed the team's join code.
func (s *Service) RecordCodeViewed(ctx context.Context, teamID, actorID uuid.UUID) error {
	_, err := s.trail.Record(ctx, audit.ActionTeamCodeViewed, audit.TargetTeam, teamID.String(), &actorID)
	return err
}

// RecordMemberInvited records that inviterID added a member to teamID.
func (s *Service) RecordMemberInvited(ctx context.Context, teamID, inviterID uuid.UUID) error {
	_, err := s.trail.Record(ctx, audit.ActionTeamMemberInvited, audit.TargetTeam, teamID.String(), &inviterID)
	return err
}

// RecordJoinedByCode records that userID joined teamID with its code.
func (s *Service) RecordJoinedByCode(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := s.trail.Record(ctx, audit.ActionTeamJoinedByCode, audit.TargetTeam, teamID.String(), &userID)
	return err
}
