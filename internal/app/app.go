// Package app wires repositories, services and the HTTP router together.
package app

import (
	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/api"
	"github.com/teamvault/teamvault/internal/api/handler"
	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/config"
	"github.com/teamvault/teamvault/internal/database"
	"github.com/teamvault/teamvault/internal/membership"
	"github.com/teamvault/teamvault/internal/memstore"
	"github.com/teamvault/teamvault/internal/team"
	"github.com/teamvault/teamvault/internal/token"
	"github.com/teamvault/teamvault/internal/variable"
	"github.com/teamvault/teamvault/internal/vault"
)

// Backend is one consistent set of repositories plus the transactor that
// spans them.
type Backend struct {
	Tx           database.Transactor
	Teams        team.Repository
	Users        auth.UserRepository
	Applications application.Repository
	Variables    variable.Repository
	Tokens       token.Repository
	Audit        audit.Repository
	// Pinger is nil for the in-memory backend.
	Pinger handler.DBPinger
}

// PostgresBackend returns repositories backed by db.
func PostgresBackend(db *database.DB) Backend {
	pool := db.Pool()
	return Backend{
		Tx:           db,
		Teams:        team.NewRepository(pool),
		Users:        auth.NewRepository(pool),
		Applications: application.NewRepository(pool),
		Variables:    variable.NewRepository(pool),
		Tokens:       token.NewRepository(pool),
		Audit:        audit.NewRepository(pool),
		Pinger:       db,
	}
}

// MemoryBackend returns repositories backed by store.
func MemoryBackend(store *memstore.Store) Backend {
	return Backend{
		Tx:           store,
		Teams:        store.Teams(),
		Users:        store.Users(),
		Applications: store.Applications(),
		Variables:    store.Variables(),
		Tokens:       store.Tokens(),
		Audit:        store.Audit(),
	}
}

// Wire builds every service on top of b and returns the router dependencies.
func Wire(b Backend, cfg *config.Config) api.RouterDeps {
	trail := audit.NewTrail(b.Audit)
	teams := team.NewService(b.Teams, trail, b.Tx, cfg.TeamCodeMaxAttempts)
	authService := auth.NewService(b.Users, teams, trail, b.Tx, cfg.BcryptCost)
	vars := variable.NewService(b.Variables, trail, b.Tx)
	apps := application.NewService(b.Applications, b.Variables, trail, b.Tx)
	tokens := token.NewStore(b.Tokens, trail, b.Tx)
	resolver := membership.NewResolver(b.Users, b.Applications)
	guard := access.NewGuard(tokens, resolver, trail, access.WithAnonymousVaultRead(cfg.AllowAnonymousVaultRead))

	return api.RouterDeps{
		DBPinger:     b.Pinger,
		Version:      cfg.Version,
		Sessions:     auth.NewSessionCodec(cfg.SessionSecret, cfg.SessionTTL),
		SecureCookie: cfg.SessionCookieSecure,
		Auth:         authService,
		Teams:        teams,
		Applications: apps,
		Variables:    vars,
		Tokens:       tokens,
		Trail:        trail,
		Guard:        guard,
		Vault:        vault.NewReader(b.Applications, b.Variables),
	}
}
