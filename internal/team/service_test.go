package team_test

import (
	"context"
	"errors"
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

func newTestService(t *testing.T, maxAttempts int) (*team.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	trail := audit.NewTrail(store.Audit())
	return team.NewService(store.Teams(), trail, store, maxAttempts), store
}

// auditActions returns recorded actions oldest first.
func auditActions(t *testing.T, store *memstore.Store) []string {
	t.Helper()
	res, err := store.Audit().List(context.Background(), audit.Filter{Limit: 200})
	require.NoError(t, err)
	actions := make([]string, 0, len(res.Entries))
	for i := len(res.Entries) - 1; i >= 0; i-- {
		actions = append(actions, res.Entries[i].Action)
	}
	return actions
}

func sequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

// --- Mock Team Repository ---

type mockTeamRepo struct {
	createFn    func(ctx context.Context, t *team.Team) error
	getByCodeFn func(ctx context.Context, code string) (*team.Team, error)
}

func (m *mockTeamRepo) Create(ctx context.Context, t *team.Team) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	t.ID = uuid.New()
	return nil
}

func (m *mockTeamRepo) GetByID(_ context.Context, _ uuid.UUID) (*team.Team, error) {
	return nil, team.ErrTeamNotFound
}

func (m *mockTeamRepo) GetByCode(ctx context.Context, code string) (*team.Team, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, team.ErrTeamNotFound
}

func (m *mockTeamRepo) List(_ context.Context) ([]team.Team, error) { return []team.Team{}, nil }

func (m *mockTeamRepo) Rename(_ context.Context, _ uuid.UUID, _ string) (*team.Team, error) {
	return nil, team.ErrTeamNotFound
}

func (m *mockTeamRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

// ===== Provision =====

func TestProvision_RedrawsWholeCodeOnCollision(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	svc.WithCodeGenerator(sequence("AAAAAA"))
	first, err := svc.Provision(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)

	var drawn int
	next := sequence("AAAAAA", "AAAAAA", "BBBBBB")
	svc.WithCodeGenerator(func() (string, error) {
		drawn++
		return next()
	})
	second, err := svc.Provision(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.Code)
	assert.Equal(t, 3, drawn)
}

func TestProvision_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 5)
	ctx := context.Background()
	svc.WithCodeGenerator(sequence("AAAAAA"))

	_, err := svc.Provision(ctx, "first")
	require.NoError(t, err)

	_, err = svc.Provision(ctx, "second")
	assert.ErrorIs(t, err, team.ErrCodeSpaceExhausted)

	teams, err := store.Teams().List(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 1)
}

func TestProvision_RetriesWhenInsertLosesRace(t *testing.T) {
	t.Parallel()

	var inserts int
	repo := &mockTeamRepo{
		createFn: func(_ context.Context, tm *team.Team) error {
			inserts++
			if inserts == 1 {
				return team.ErrDuplicateCode
			}
			tm.ID = uuid.New()
			return nil
		},
	}
	store := memstore.New()
	svc := team.NewService(repo, audit.NewTrail(store.Audit()), store, 0).
		WithCodeGenerator(sequence("AAAAAA", "BBBBBB"))

	created, err := svc.Provision(context.Background(), "acme")

	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", created.Code)
	assert.Equal(t, 2, inserts)
}

func TestProvision_StorageErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	var lookups int
	repo := &mockTeamRepo{
		getByCodeFn: func(_ context.Context, _ string) (*team.Team, error) {
			lookups++
			return nil, boom
		},
	}
	store := memstore.New()
	svc := team.NewService(repo, audit.NewTrail(store.Audit()), store, 0)

	_, err := svc.Provision(context.Background(), "acme")

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, lookups)
}

func TestProvision_TenThousandTeamsHaveUniqueCodes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	t.Parallel()

	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		tm, err := svc.Provision(ctx, "team")
		require.NoError(t, err)
		require.False(t, seen[tm.Code], "duplicate code %s", tm.Code)
		seen[tm.Code] = true
	}
}

// ===== Create / Rename / Delete =====

func TestCreate_RecordsTeamCreated(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 0)
	actor := uuid.New()

	created, err := svc.Create(context.Background(), "Acme", actor)

	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Name)
	assert.True(t, team.ValidCode(created.Code))

	res, err := store.Audit().List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assert.Equal(t, audit.ActionTeamCreated, e.Action)
	assert.Equal(t, audit.TargetTeam, e.TargetType)
	assert.Equal(t, created.ID.String(), e.TargetID)
	require.NotNil(t, e.UserID)
	assert.Equal(t, actor, *e.UserID)
}

func TestCreate_FailureWritesNoAudit(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 1)
	svc.WithCodeGenerator(func() (string, error) { return "", errors.New("entropy unavailable") })

	_, err := svc.Create(context.Background(), "Acme", uuid.New())

	require.Error(t, err)
	assert.Empty(t, auditActions(t, store))
}

func TestFindByCode_IsCaseInsensitive(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, 0)
	ctx := context.Background()
	svc.WithCodeGenerator(sequence("ABC234"))
	created, err := svc.Create(ctx, "Acme", uuid.New())
	require.NoError(t, err)

	found, err := svc.FindByCode(ctx, " abc234 ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.FindByCode(ctx, "ZZZ999")
	assert.ErrorIs(t, err, team.ErrTeamNotFound)
}

func TestFindByCode_MalformedCodeIsNotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, 0)
	ctx := context.Background()
	svc.WithCodeGenerator(sequence("ABC234"))
	_, err := svc.Create(ctx, "Acme", uuid.New())
	require.NoError(t, err)

	for _, code := range []string{"", "ABC", "ABC2345", "ABC23I"} {
		_, err := svc.FindByCode(ctx, code)
		assert.ErrorIs(t, err, team.ErrTeamNotFound, "code %q", code)
	}
}

func TestRename_RecordsTeamUpdated(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 0)
	ctx := context.Background()
	actor := uuid.New()
	created, err := svc.Create(ctx, "Acme", actor)
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, created.ID, "Acme Corp", actor)

	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", renamed.Name)
	assert.Equal(t, created.Code, renamed.Code)
	assert.Equal(t, []string{audit.ActionTeamCreated, audit.ActionTeamUpdated}, auditActions(t, store))
}

func TestRename_NotFoundWritesNoAudit(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 0)

	_, err := svc.Rename(context.Background(), uuid.New(), "x", uuid.New())

	assert.ErrorIs(t, err, team.ErrTeamNotFound)
	assert.Empty(t, auditActions(t, store))
}

func TestDelete_RecordsTeamDeleted(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 0)
	ctx := context.Background()
	actor := uuid.New()
	created, err := svc.Create(ctx, "Acme", actor)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, actor))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, team.ErrTeamNotFound)
	assert.Equal(t, []string{audit.ActionTeamCreated, audit.ActionTeamDeleted}, auditActions(t, store))
}

func TestDelete_WithDependentsIsRejected(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 0)
	ctx := context.Background()
	actor := uuid.New()
	created, err := svc.Create(ctx, "Acme", actor)
	require.NoError(t, err)
	require.NoError(t, store.Applications().Create(ctx, &application.Application{Name: "api", TeamID: created.ID}))

	err = svc.Delete(ctx, created.ID, actor)

	assert.ErrorIs(t, err, team.ErrTeamHasDependents)
	_, err = svc.Get(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{audit.ActionTeamCreated}, auditActions(t, store))
}

func TestDelete_WithMembersIsRejected(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 0)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Acme", uuid.New())
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(ctx, &auth.User{Name: "a", Email: "a@x.com", PasswordHash: "h", TeamID: &created.ID}))

	err = svc.Delete(ctx, created.ID, uuid.New())

	assert.ErrorIs(t, err, team.ErrTeamHasDependents)
}

// ===== Audit-only events =====

func TestRecordEvents(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, 0)
	ctx := context.Background()
	teamID, actor := uuid.New(), uuid.New()

	require.NoError(t, svc.RecordCodeViewed(ctx, teamID, actor))
	require.NoError(t, svc.RecordMemberInvited(ctx, teamID, actor))
	require.NoError(t, svc.RecordJoinedByCode(ctx, teamID, actor))

	assert.Equal(t, []string{
		audit.ActionTeamCodeViewed,
		audit.ActionTeamMemberInvited,
		audit.ActionTeamJoinedByCode,
	}, auditActions(t, store))
}
