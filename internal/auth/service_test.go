package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/memstore"
	"github.com/teamvault/teamvault/internal/team"
)

// --- Helpers ---

type fixture struct {
	svc   *auth.Service
	teams *team.Service
	store *memstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	trail := audit.NewTrail(store.Audit())
	teams := team.NewService(store.Teams(), trail, store, 50)
	return &fixture{
		svc:   auth.NewService(store.Users(), teams, trail, store, 4),
		teams: teams,
		store: store,
	}
}

// actions returns recorded audit actions oldest first.
func (f *fixture) actions(t *testing.T) []string {
	t.Helper()
	res, err := f.store.Audit().List(context.Background(), audit.Filter{Limit: 200})
	require.NoError(t, err)
	out := make([]string, 0, len(res.Entries))
	for i := len(res.Entries) - 1; i >= 0; i-- {
		out = append(out, res.Entries[i].Action)
	}
	return out
}

func input(email string) auth.RegisterInput {
	return auth.RegisterInput{Name: " Alice ", Email: email, Password: "password123"}
}

// ===== Register =====

func TestRegister_NormalizesAndHashes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	u, err := f.svc.Register(context.Background(), input("  Alice@Example.COM "))

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.Nil(t, u.TeamID)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.True(t, auth.VerifyPassword("password123", u.PasswordHash))
	assert.Equal(t, []string{audit.ActionUserRegistered}, f.actions(t))
}

func TestRegister_ExistingEmailWritesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), input("alice@example.com"))
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), input("ALICE@example.com"))
	assert.ErrorIs(t, err, auth.ErrUserAlreadyExists)

	_, _, err = f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "Acme")
	assert.ErrorIs(t, err, auth.ErrUserAlreadyExists)

	teams, err := f.teams.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, teams)
	assert.Equal(t, []string{audit.ActionUserRegistered}, f.actions(t))
}

// ===== RegisterWithTeam =====

func TestRegisterWithTeam_CreatesBoundUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	u, tm, err := f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "  Acme ")

	require.NoError(t, err)
	assert.Equal(t, "Acme", tm.Name)
	assert.True(t, team.ValidCode(tm.Code))
	require.NotNil(t, u.TeamID)
	assert.Equal(t, tm.ID, *u.TeamID)
	assert.Equal(t, []string{audit.ActionTeamCreated, audit.ActionUserRegistered}, f.actions(t))

	res, err := f.store.Audit().List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	for _, e := range res.Entries {
		require.NotNil(t, e.UserID)
		assert.Equal(t, u.ID, *e.UserID)
	}
}

// ===== RegisterWithCode =====

func TestRegisterWithCode_CaseInsensitive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, tm, err := f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "Acme")
	require.NoError(t, err)

	bob, joined, err := f.svc.RegisterWithCode(context.Background(), input("bob@example.com"), strings.ToLower(tm.Code))

	require.NoError(t, err)
	assert.Equal(t, tm.ID, joined.ID)
	require.NotNil(t, bob.TeamID)
	assert.Equal(t, tm.ID, *bob.TeamID)
	assert.Equal(t, []string{
		audit.ActionTeamCreated,
		audit.ActionUserRegistered,
		audit.ActionUserRegistered,
		audit.ActionTeamJoinedByCode,
	}, f.actions(t))
}

func TestRegisterWithCode_UnknownCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, _, err := f.svc.RegisterWithCode(context.Background(), input("bob@example.com"), "ZZZZZZ")

	assert.ErrorIs(t, err, auth.ErrInvalidTeamCode)
	_, err = f.store.Users().GetByEmail(context.Background(), "bob@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
	assert.Empty(t, f.actions(t))
}

// ===== Invite =====

func TestInvite_TemporaryPasswordWorksForLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice, tm, err := f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "Acme")
	require.NoError(t, err)

	carol, temp, err := f.svc.Invite(context.Background(), tm.ID, alice.ID, "Carol", "Carol@Example.com")

	require.NoError(t, err)
	require.NotEmpty(t, temp)
	assert.NotEqual(t, temp, carol.PasswordHash)
	require.NotNil(t, carol.TeamID)
	assert.Equal(t, tm.ID, *carol.TeamID)

	logged, err := f.svc.Login(context.Background(), "carol@example.com", temp)
	require.NoError(t, err)
	assert.Equal(t, carol.ID, logged.ID)

	actions := f.actions(t)
	assert.Contains(t, actions, audit.ActionTeamMemberInvited)
}

func TestInvite_ExistingEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice, tm, err := f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "Acme")
	require.NoError(t, err)

	_, _, err = f.svc.Invite(context.Background(), tm.ID, alice.ID, "Alice", "alice@example.com")

	assert.ErrorIs(t, err, auth.ErrUserAlreadyExists)
}

// ===== Login =====

func TestLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u, err := f.svc.Register(context.Background(), input("alice@example.com"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"success", "alice@example.com", "password123", nil},
		{"email case folded", " ALICE@example.com", "password123", nil},
		{"wrong password", "alice@example.com", "password124", auth.ErrInvalidCredentials},
		{"unknown email", "nobody@example.com", "password123", auth.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
		})
	}

	logins := 0
	for _, a := range f.actions(t) {
		if a == audit.ActionUserLogin {
			logins++
		}
	}
	assert.Equal(t, 2, logins)
}

// ===== CreateTeam =====

func TestCreateTeam_BindsTeamlessActor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u, err := f.svc.Register(context.Background(), input("alice@example.com"))
	require.NoError(t, err)

	tm, err := f.svc.CreateTeam(context.Background(), u.ID, "Acme")

	require.NoError(t, err)
	got, err := f.svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TeamID)
	assert.Equal(t, tm.ID, *got.TeamID)
}

func TestCreateTeam_KeepsExistingMembership(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u, first, err := f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "First")
	require.NoError(t, err)

	second, err := f.svc.CreateTeam(context.Background(), u.ID, "Second")

	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	got, err := f.svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *got.TeamID)
}

func TestCreateTeam_UnknownActor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.CreateTeam(context.Background(), uuid.New(), "Acme")

	assert.ErrorIs(t, err, auth.ErrUserNotFound)
	teams, err := f.teams.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, teams)
}

// ===== LeaveAndDeleteTeam =====

func TestLeaveAndDeleteTeam_SoleMember(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u, tm, err := f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "Acme")
	require.NoError(t, err)

	require.NoError(t, f.svc.LeaveAndDeleteTeam(context.Background(), u.ID, tm.ID))

	_, err = f.teams.Get(context.Background(), tm.ID)
	assert.ErrorIs(t, err, team.ErrTeamNotFound)
	got, err := f.svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TeamID)
	assert.Contains(t, f.actions(t), audit.ActionTeamDeleted)
}

func TestLeaveAndDeleteTeam_OtherMembers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u, tm, err := f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "Acme")
	require.NoError(t, err)
	_, _, err = f.svc.RegisterWithCode(context.Background(), input("bob@example.com"), tm.Code)
	require.NoError(t, err)

	err = f.svc.LeaveAndDeleteTeam(context.Background(), u.ID, tm.ID)

	assert.ErrorIs(t, err, team.ErrTeamHasDependents)
	got, err := f.svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TeamID)
}

func TestLeaveAndDeleteTeam_ApplicationsRollBackDetach(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	u, tm, err := f.svc.RegisterWithTeam(context.Background(), input("alice@example.com"), "Acme")
	require.NoError(t, err)
	require.NoError(t, f.store.Applications().Create(context.Background(), &application.Application{Name: "api", TeamID: tm.ID}))

	err = f.svc.LeaveAndDeleteTeam(context.Background(), u.ID, tm.ID)

	assert.True(t, errors.Is(err, team.ErrTeamHasDependents))
	got, err := f.svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TeamID, "detach must be undone")
	assert.Equal(t, tm.ID, *got.TeamID)
}
