package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/database"
	"github.com/teamvault/teamvault/internal/team"
)

// ErrInvalidCredentials is returned when login fails for any reason.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidTeamCode is returned when no team matches a join code.
var ErrInvalidTeamCode = errors.New("invalid team code")

// Service implements registration, login and member invitation.
type Service struct {
	users      UserRepository
	teams      *team.Service
	trail      audit.Recorder
	tx         database.Transactor
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(users UserRepository, teams *team.Service, trail audit.Recorder, tx database.Transactor, bcryptCost int) *Service {
	return &Service{
		users:      users,
		teams:      teams,
		trail:      trail,
		tx:         tx,
		bcryptCost: bcryptCost,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with no team, or with in.TeamID when set, and
// records USER_REGISTERED.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	u, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	u.TeamID = in.TeamID

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.createAndRecord(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RegisterWithTeam creates a new team and a user bound to it, then records
// TEAM_CREATED and USER_REGISTERED, both attributed to the new user.
func (s *Service) RegisterWithTeam(ctx context.Context, in RegisterInput, teamName string) (*User, *team.Team, error) {
	u, err := s.prepare(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	var created *team.Team
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.teams.Provision(ctx, strings.TrimSpace(teamName))
		if err != nil {
			return err
		}
		u.TeamID = &t.ID
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		if _, err := s.trail.Record(ctx, audit.ActionTeamCreated, audit.TargetTeam, t.ID.String(), &u.ID); err != nil {
			return err
		}
		if _, err := s.trail.Record(ctx, audit.ActionUserRegistered, audit.TargetUser, u.ID.String(), &u.ID); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return u, created, nil
}

// RegisterWithCode creates a user bound to the team identified by code
// (case-insensitive), then records USER_REGISTERED and TEAM_JOINED_BY_CODE.
func (s *Service) RegisterWithCode(ctx context.Context, in RegisterInput, code string) (*User, *team.Team, error) {
	u, err := s.prepare(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	t, err := s.teams.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			return nil, nil, ErrInvalidTeamCode
		}
		return nil, nil, fmt.Errorf("looking up team code: %w", err)
	}
	u.TeamID = &t.ID

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.createAndRecord(ctx, u); err != nil {
			return err
		}
		return s.teams.RecordJoinedByCode(ctx, t.ID, u.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	return u, t, nil
}

// Invite creates a member of teamID with a temporary password, records
// USER_REGISTERED for the new user and TEAM_MEMBER_INVITED for the inviter.
// The temporary password is returned once and never stored in clear.
func (s *Service) Invite(ctx context.Context, teamID, inviterID uuid.UUID, name, email string) (*User, string, error) {
	tempPassword, err := TemporaryPassword()
	if err != nil {
		return nil, "", err
	}

	u, err := s.prepare(ctx, RegisterInput{Name: name, Email: email, Password: tempPassword})
	if err != nil {
		return nil, "", err
	}
	u.TeamID = &teamID

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.createAndRecord(ctx, u); err != nil {
			return err
		}
		return s.teams.RecordMemberInvited(ctx, teamID, inviterID)
	})
	if err != nil {
		return nil, "", err
	}
	return u, tempPassword, nil
}

// CreateTeam creates a team on behalf of actorID and records TEAM_CREATED.
// An actor without a team becomes its first member.
func (s *Service) CreateTeam(ctx context.Context, actorID uuid.UUID, name string) (*team.Team, error) {
	var created *team.Team
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil {
			return err
		}
		t, err := s.teams.Create(ctx, strings.TrimSpace(name), actorID)
		if err != nil {
			return err
		}
		if actor.TeamID == nil {
			if err := s.users.SetTeam(ctx, actorID, &t.ID); err != nil {
				return err
			}
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// LeaveAndDeleteTeam deletes teamID on behalf of actorID, its last member.
// The actor is detached first so the team has no dependents left. A team
// with other members or with applications is reported as
// team.ErrTeamHasDependents and nothing changes.
func (s *Service) LeaveAndDeleteTeam(ctx context.Context, actorID, teamID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		members, err := s.users.ListByTeam(ctx, teamID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.ID != actorID {
				return team.ErrTeamHasDependents
			}
		}
		if err := s.users.SetTeam(ctx, actorID, nil); err != nil {
			return err
		}
		return s.teams.Delete(ctx, teamID, actorID)
	})
}

// Login verifies credentials and records USER_LOGIN.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !VerifyPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.trail.Record(ctx, audit.ActionUserLogin, audit.TargetUser, u.ID.String(), &u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// Members lists the users of a team.
func (s *Service) Members(ctx context.Context, teamID uuid.UUID) ([]User, error) {
	return s.users.ListByTeam(ctx, teamID)
}

// prepare rejects an already registered email before anything is written and
// returns an unsaved User with a hashed password.
func (s *Service) prepare(ctx context.Context, in RegisterInput) (*User, error) {
	email := NormalizeEmail(in.Email)

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	return &User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
	}, nil
}

func (s *Service) createAndRecord(ctx context.Context, u *User) error {
	if err := s.users.Create(ctx, u); err != nil {
		return err
	}
	_, err := s.trail.Record(ctx, audit.ActionUserRegistered, audit.TargetUser, u.ID.String(), &u.ID)
	return err
}
