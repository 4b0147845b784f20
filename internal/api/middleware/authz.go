package middleware

import (
	"net/http"

	"github.com/teamvault/teamvault/internal/api/response"
)

// RequireTeam rejects principals that belong to no team with 403. It must run
// after RequirePrincipal.
func RequireTeam() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			p := GetPrincipal(r.Context())
			if p == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
				return
			}

			if p.TeamID() == nil {
				response.Err(w, http.StatusForbidden, "NO_TEAM", "You must belong to a team", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
