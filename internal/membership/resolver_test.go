package membership_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/membership"
)

// --- Mocks ---

type mockUsers struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

func (m *mockUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return m.getByIDFn(ctx, id)
}

type mockApps struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*application.Application, error)
}

func (m *mockApps) GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	return m.getByIDFn(ctx, id)
}

// ===== TeamOfUser =====

func TestTeamOfUser(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	withTeam := uuid.New()
	teamless := uuid.New()
	boom := errors.New("db down")

	users := &mockUsers{getByIDFn: func(_ context.Context, id uuid.UUID) (*auth.User, error) {
		switch id {
		case withTeam:
			return &auth.User{ID: id, TeamID: &teamID}, nil
		case teamless:
			return &auth.User{ID: id}, nil
		case uuid.Nil:
			return nil, boom
		}
		return nil, auth.ErrUserNotFound
	}}
	r := membership.NewResolver(users, &mockApps{})

	got, err := r.TeamOfUser(context.Background(), withTeam)
	require.NoError(t, err)
	assert.Equal(t, teamID, *got)

	got, err = r.TeamOfUser(context.Background(), teamless)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = r.TeamOfUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = r.TeamOfUser(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, auth.ErrUserNotFound)
}

// ===== TeamOfApplication =====

func TestTeamOfApplication(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	appID := uuid.New()
	apps := &mockApps{getByIDFn: func(_ context.Context, id uuid.UUID) (*application.Application, error) {
		if id == appID {
			return &application.Application{ID: id, TeamID: teamID}, nil
		}
		return nil, application.ErrApplicationNotFound
	}}
	r := membership.NewResolver(&mockUsers{}, apps)

	got, err := r.TeamOfApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, teamID, got)

	_, err = r.TeamOfApplication(context.Background(), uuid.New())
	assert.ErrorIs(t, err, application.ErrApplicationNotFound)
}
