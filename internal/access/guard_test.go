package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/membership"
	"github.com/teamvault/teamvault/internal/memstore"
	"github.com/teamvault/teamvault/internal/metrics"
	"github.com/teamvault/teamvault/internal/team"
	"github.com/teamvault/teamvault/internal/token"
)

// --- Fixture ---

// world has two teams. Alice owns app in team A, Bob is in team B and Carol
// has no team. Each user holds one live token.
type world struct {
	store  *memstore.Store
	tokens *token.Store
	guard  *access.Guard

	teamA, teamB uuid.UUID
	app          uuid.UUID
	alice, bob   uuid.UUID
	carol        uuid.UUID

	aliceToken, bobToken, carolToken string
}

func newWorld(t *testing.T, opts ...access.GuardOption) *world {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	trail := audit.NewTrail(store.Audit())
	w := &world{store: store, tokens: token.NewStore(store.Tokens(), trail, store)}

	w.teamA = createTeam(t, store, "AAAAAA")
	w.teamB = createTeam(t, store, "BBBBBB")
	w.alice = createUser(t, store, "alice@example.com", &w.teamA)
	w.bob = createUser(t, store, "bob@example.com", &w.teamB)
	w.carol = createUser(t, store, "carol@example.com", nil)

	a := &application.Application{Name: "api", TeamID: w.teamA}
	require.NoError(t, store.Applications().Create(ctx, a))
	w.app = a.ID

	w.aliceToken = issue(t, w.tokens, w.alice)
	w.bobToken = issue(t, w.tokens, w.bob)
	w.carolToken = issue(t, w.tokens, w.carol)

	resolver := membership.NewResolver(store.Users(), store.Applications())
	w.guard = access.NewGuard(w.tokens, resolver, trail, opts...)
	return w
}

func createTeam(t *testing.T, store *memstore.Store, code string) uuid.UUID {
	t.Helper()
	tm := &team.Team{Name: code, Code: code}
	require.NoError(t, store.Teams().Create(context.Background(), tm))
	return tm.ID
}

func createUser(t *testing.T, store *memstore.Store, email string, teamID *uuid.UUID) uuid.UUID {
	t.Helper()
	u := &auth.User{Name: email, Email: email, PasswordHash: "x", TeamID: teamID}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u.ID
}

func issue(t *testing.T, s *token.Store, userID uuid.UUID) string {
	t.Helper()
	tok, err := s.Issue(context.Background(), userID)
	require.NoError(t, err)
	return tok.Token
}

func (w *world) syncCount(t *testing.T) int {
	t.Helper()
	action := audit.ActionSyncEnv
	res, err := w.store.Audit().List(context.Background(), audit.Filter{Action: &action})
	require.NoError(t, err)
	return res.Total
}

func bearer(tok string) access.Credentials { return access.Credentials{BearerToken: tok} }

func session(id uuid.UUID) access.Credentials { return access.Credentials{Session: &id} }

// ===== Resolve =====

func TestResolve(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	ghost := uuid.New()

	tests := []struct {
		name     string
		creds    access.Credentials
		wantErr  error
		wantUser uuid.UUID
		wantKind string
	}{
		{"bearer token", bearer(w.aliceToken), nil, w.alice, "token"},
		{"session", session(w.bob), nil, w.bob, "session"},
		{"bearer wins over session", access.Credentials{BearerToken: w.aliceToken, Session: &w.bob}, nil, w.alice, "token"},
		{"unknown token", bearer("tv_unknown"), access.ErrInvalidToken, uuid.Nil, ""},
		{"bad token ignores valid session", access.Credentials{BearerToken: "tv_unknown", Session: &w.bob}, access.ErrInvalidToken, uuid.Nil, ""},
		{"session for deleted user", session(ghost), access.ErrUnauthenticated, uuid.Nil, ""},
		{"no credentials", access.Credentials{}, access.ErrUnauthenticated, uuid.Nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := w.guard.Resolve(context.Background(), tt.creds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, p.UserID())
			assert.Equal(t, tt.wantKind, access.Kind(p))
		})
	}
}

func TestResolve_RevokedToken(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	require.NoError(t, w.tokens.Revoke(context.Background(), w.aliceToken))

	_, err := w.guard.Resolve(context.Background(), bearer(w.aliceToken))

	assert.ErrorIs(t, err, access.ErrInvalidToken)
}

func TestResolve_ReadsTeamOnEveryCall(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	p, err := w.guard.Resolve(context.Background(), bearer(w.carolToken))
	require.NoError(t, err)
	assert.Nil(t, p.TeamID())

	require.NoError(t, w.store.Users().SetTeam(context.Background(), w.carol, &w.teamA))

	p, err = w.guard.Resolve(context.Background(), bearer(w.carolToken))
	require.NoError(t, err)
	require.NotNil(t, p.TeamID())
	assert.Equal(t, w.teamA, *p.TeamID())
}

// ===== AuthorizeVaultRead =====

func TestAuthorizeVaultRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		creds   func(w *world) access.Credentials
		app     func(w *world) uuid.UUID
		wantErr error
	}{
		{
			name:  "member token",
			creds: func(w *world) access.Credentials { return bearer(w.aliceToken) },
			app:   func(w *world) uuid.UUID { return w.app },
		},
		{
			name:  "member session",
			creds: func(w *world) access.Credentials { return session(w.alice) },
			app:   func(w *world) uuid.UUID { return w.app },
		},
		{
			name:    "other team",
			creds:   func(w *world) access.Credentials { return bearer(w.bobToken) },
			app:     func(w *world) uuid.UUID { return w.app },
			wantErr: access.ErrForbidden,
		},
		{
			name:    "teamless user",
			creds:   func(w *world) access.Credentials { return bearer(w.carolToken) },
			app:     func(w *world) uuid.UUID { return w.app },
			wantErr: access.ErrNoTeam,
		},
		{
			name:    "unknown application",
			creds:   func(w *world) access.Credentials { return bearer(w.aliceToken) },
			app:     func(*world) uuid.UUID { return uuid.New() },
			wantErr: access.ErrNotFound,
		},
		{
			name:    "invalid token",
			creds:   func(*world) access.Credentials { return bearer("tv_garbage") },
			app:     func(w *world) uuid.UUID { return w.app },
			wantErr: access.ErrInvalidToken,
		},
		{
			name:    "anonymous disabled",
			creds:   func(*world) access.Credentials { return access.Credentials{} },
			app:     func(w *world) uuid.UUID { return w.app },
			wantErr: access.ErrUnauthenticated,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := newWorld(t)
			p, err := w.guard.AuthorizeVaultRead(context.Background(), tt.creds(w), tt.app(w))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				assert.Equal(t, 0, w.syncCount(t))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, w.alice, p.UserID())
			assert.Equal(t, 1, w.syncCount(t))
		})
	}
}

func TestAuthorizeVaultRead_AuditEntryIsAttributed(t *testing.T) {
	t.Parallel()

	w := newWorld(t)

	_, err := w.guard.AuthorizeVaultRead(context.Background(), bearer(w.aliceToken), w.app)
	require.NoError(t, err)

	action := audit.ActionSyncEnv
	res, err := w.store.Audit().List(context.Background(), audit.Filter{Action: &action})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assert.Equal(t, audit.TargetApplication, e.TargetType)
	assert.Equal(t, w.app.String(), e.TargetID)
	require.NotNil(t, e.UserID)
	assert.Equal(t, w.alice, *e.UserID)
}

func TestAuthorizeVaultRead_OneEntryPerRead(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	for i := 0; i < 3; i++ {
		_, err := w.guard.AuthorizeVaultRead(context.Background(), bearer(w.aliceToken), w.app)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, w.syncCount(t))
}

func TestAuthorizeVaultRead_RevokedAfterSuccess(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	_, err := w.guard.AuthorizeVaultRead(context.Background(), bearer(w.aliceToken), w.app)
	require.NoError(t, err)

	require.NoError(t, w.tokens.Revoke(context.Background(), w.aliceToken))

	_, err = w.guard.AuthorizeVaultRead(context.Background(), bearer(w.aliceToken), w.app)
	assert.ErrorIs(t, err, access.ErrInvalidToken)
	assert.Equal(t, 1, w.syncCount(t))
}

func TestAuthorizeVaultRead_MembershipChangeTakesEffect(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	_, err := w.guard.AuthorizeVaultRead(context.Background(), bearer(w.bobToken), w.app)
	require.ErrorIs(t, err, access.ErrForbidden)

	require.NoError(t, w.store.Users().SetTeam(context.Background(), w.bob, &w.teamA))

	_, err = w.guard.AuthorizeVaultRead(context.Background(), bearer(w.bobToken), w.app)
	assert.NoError(t, err)
}

func TestAuthorizeVaultRead_Anonymous(t *testing.T) {
	t.Parallel()

	w := newWorld(t, access.WithAnonymousVaultRead(true))

	p, err := w.guard.AuthorizeVaultRead(context.Background(), access.Credentials{}, w.app)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, "anonymous", access.Kind(p))
	assert.Equal(t, 0, w.syncCount(t))

	_, err = w.guard.AuthorizeVaultRead(context.Background(), access.Credentials{}, uuid.New())
	assert.ErrorIs(t, err, access.ErrNotFound)

	// Presented credentials are still checked in full.
	_, err = w.guard.AuthorizeVaultRead(context.Background(), bearer(w.bobToken), w.app)
	assert.ErrorIs(t, err, access.ErrForbidden)
}

// --- Mock Recorder ---

type mockRecorder struct {
	recordFn func(ctx context.Context, action, targetType, targetID string, userID *uuid.UUID) (*audit.Entry, error)
}

func (m *mockRecorder) Record(ctx context.Context, action, targetType, targetID string, userID *uuid.UUID) (*audit.Entry, error) {
	return m.recordFn(ctx, action, targetType, targetID, userID)
}

func TestAuthorizeVaultRead_AuditFailureDenies(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	boom := errors.New("audit store down")
	rec := &mockRecorder{recordFn: func(context.Context, string, string, string, *uuid.UUID) (*audit.Entry, error) {
		return nil, boom
	}}
	guard := access.NewGuard(w.tokens, membership.NewResolver(w.store.Users(), w.store.Applications()), rec)

	p, err := guard.AuthorizeVaultRead(context.Background(), bearer(w.aliceToken), w.app)

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, p)
}

// Not parallel: reads process-wide counters.
func TestAuthorizeVaultRead_CountsOutcomes(t *testing.T) {
	w := newWorld(t)
	allow := metrics.VaultDecisionsTotal.WithLabelValues("allow")
	forbidden := metrics.VaultDecisionsTotal.WithLabelValues("forbidden")
	allowBefore := testutil.ToFloat64(allow)
	forbiddenBefore := testutil.ToFloat64(forbidden)

	_, err := w.guard.AuthorizeVaultRead(context.Background(), bearer(w.aliceToken), w.app)
	require.NoError(t, err)
	_, err = w.guard.AuthorizeVaultRead(context.Background(), bearer(w.bobToken), w.app)
	require.Error(t, err)

	assert.Equal(t, allowBefore+1, testutil.ToFloat64(allow))
	assert.Equal(t, forbiddenBefore+1, testutil.ToFloat64(forbidden))
}

// ===== AuthorizeTeam / RequireTeam =====

func TestAuthorizeTeam(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	teamA := w.teamA

	assert.NoError(t, w.guard.AuthorizeTeam(access.SessionPrincipal{ID: w.alice, Team: &teamA}, w.teamA))
	assert.ErrorIs(t, w.guard.AuthorizeTeam(access.SessionPrincipal{ID: w.alice, Team: &teamA}, w.teamB), access.ErrForbidden)
	assert.ErrorIs(t, w.guard.AuthorizeTeam(access.TokenPrincipal{ID: w.carol}, w.teamA), access.ErrNoTeam)
}

func TestRequireTeam(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	got, err := access.RequireTeam(access.TokenPrincipal{ID: uuid.New(), Team: &teamID})
	require.NoError(t, err)
	assert.Equal(t, teamID, got)

	_, err = access.RequireTeam(access.SessionPrincipal{ID: uuid.New()})
	assert.ErrorIs(t, err, access.ErrNoTeam)
}
