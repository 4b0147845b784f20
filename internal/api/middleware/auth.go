package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/api/response"
)

const (
	credentialsKey contextKey = "credentials"
	principalKey   contextKey = "principal"
)

// SessionCookieName is the cookie holding the signed session.
const SessionCookieName = "teamvault_session"

// SessionParser validates a session cookie value and returns its user id.
type SessionParser interface {
	Parse(value string) (uuid.UUID, error)
}

// PrincipalResolver turns credentials into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, creds access.Credentials) (access.Principal, error)
}

// Credentials is middleware that collects the bearer token and the session
// cookie of a request. It never rejects: an invalid cookie is ignored and
// resolution happens later in RequirePrincipal or the vault handler.
func Credentials(sessions SessionParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var creds access.Credentials
			creds.BearerToken = bearerToken(r.Header.Get("Authorization"))

			if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
				if userID, err := sessions.Parse(c.Value); err == nil {
					creds.Session = &userID
				} else {
					slog.Debug("ignoring invalid session cookie", "error", err, "requestId", GetRequestID(r.Context()))
				}
			}

			ctx := context.WithValue(r.Context(), credentialsKey, creds)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal rejects requests whose credentials do not resolve to a
// principal with 401 and stores the principal in the context otherwise.
func RequirePrincipal(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			p, err := resolver.Resolve(r.Context(), GetCredentials(r.Context()))
			if err != nil {
				switch {
				case errors.Is(err, access.ErrInvalidToken):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or revoked token", requestID)
				case errors.Is(err, access.ErrUnauthenticated):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				default:
					slog.Error("failed to resolve principal", "error", err, "requestId", requestID)
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				}
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCredentials retrieves the request credentials from the context.
func GetCredentials(ctx context.Context) access.Credentials {
	creds, _ := ctx.Value(credentialsKey).(access.Credentials)
	return creds
}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) access.Principal {
	p, _ := ctx.Value(principalKey).(access.Principal)
	return p
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
