package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/api/handler"
	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/audit"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/team"
	"github.com/teamvault/teamvault/internal/token"
	"github.com/teamvault/teamvault/internal/variable"
	"github.com/teamvault/teamvault/internal/vault"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger     handler.DBPinger
	Version      string
	Sessions     *auth.SessionCodec
	SecureCookie bool
	Auth         *auth.Service
	Teams        *team.Service
	Applications *application.Service
	Variables    *variable.Service
	Tokens       *token.Store
	Trail        *audit.Trail
	Guard        *access.Guard
	Vault        *vault.Reader
	// MetricsHandler serves GET /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	authHandler := handler.NewAuthHandler(deps.Auth, deps.Teams, deps.Sessions, deps.SecureCookie)
	teamHandler := handler.NewTeamHandler(deps.Teams, deps.Auth, deps.Applications, deps.Variables, deps.Guard)
	appHandler := handler.NewApplicationHandler(deps.Applications, deps.Guard)
	varHandler := handler.NewVariableHandler(deps.Variables, deps.Guard)
	tokenHandler := handler.NewTokenHandler(deps.Tokens)
	auditHandler := handler.NewAuditHandler(deps.Trail)
	vaultHandler := handler.NewVaultHandler(deps.Guard, deps.Vault)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Credentials(deps.Sessions))

		r.Get("/api/vault/{appId}", vaultHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePrincipal(deps.Guard))

			r.Get("/me", authHandler.Me)
			r.Post("/teams", teamHandler.Create)

			r.Route("/api/tokens", func(r chi.Router) {
				r.Post("/", tokenHandler.Issue)
				r.Get("/", tokenHandler.List)
				r.Post("/revoke", tokenHandler.Revoke)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireTeam())

				r.Get("/teams/current", teamHandler.Current)
				r.Route("/teams/{id}", func(r chi.Router) {
					r.Get("/", teamHandler.Get)
					r.Put("/", teamHandler.Update)
					r.Delete("/", teamHandler.Delete)
					r.Post("/invite", teamHandler.Invite)
				})

				r.Route("/applications", func(r chi.Router) {
					r.Get("/", appHandler.List)
					r.Post("/", appHandler.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", appHandler.Get)
						r.Put("/", appHandler.Update)
						r.Delete("/", appHandler.Delete)
						r.Get("/variables", varHandler.List)
						r.Post("/variables", varHandler.Create)
					})
				})

				r.Put("/variables/{id}", varHandler.Update)
				r.Delete("/variables/{id}", varHandler.Delete)

				r.Get("/audit", auditHandler.List)
			})
		})
	})

	return r
}
