package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/api/response"
	"github.com/teamvault/teamvault/internal/api/validation"
	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/team"
	"github.com/teamvault/teamvault/internal/token"
	"github.com/teamvault/teamvault/internal/variable"
	"github.com/teamvault/teamvault/internal/vault"
)

const timeFormat = "2006-01-02T15:04:05Z"

const maxBodyBytes = 1 << 20

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// decodeJSON reads the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// validationFailed writes a 400 with field details when errs is non-empty.
func validationFailed(w http.ResponseWriter, r *http.Request, errs []validation.FieldError) bool {
	if len(errs) == 0 {
		return false
	}
	response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", errs, middleware.GetRequestID(r.Context()))
	return true
}

// pathID parses the named URL parameter as a UUID and writes a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", name+" must be a valid UUID", middleware.GetRequestID(r.Context()))
		return uuid.Nil, false
	}
	return id, true
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{access.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{access.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or revoked token"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"},
	{access.ErrNoTeam, http.StatusForbidden, "NO_TEAM", "You must belong to a team"},
	{access.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Resource belongs to another team"},
	{access.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Application not found"},
	{vault.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Application not found"},
	{application.ErrApplicationNotFound, http.StatusNotFound, "NOT_FOUND", "Application not found"},
	{variable.ErrVariableNotFound, http.StatusNotFound, "NOT_FOUND", "Variable not found"},
	{team.ErrTeamNotFound, http.StatusNotFound, "NOT_FOUND", "Team not found"},
	{token.ErrTokenNotFound, http.StatusNotFound, "NOT_FOUND", "Token not found"},
	{auth.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND", "User not found"},
	{auth.ErrInvalidTeamCode, http.StatusBadRequest, "INVALID_TEAM_CODE", "Invalid team code"},
	{auth.ErrUserAlreadyExists, http.StatusConflict, "USER_EXISTS", "A user with this email already exists"},
	{variable.ErrDuplicateKey, http.StatusConflict, "DUPLICATE_KEY", "A variable with this key already exists in this application"},
	{team.ErrTeamHasDependents, http.StatusConflict, "TEAM_HAS_DEPENDENTS", "Cannot delete a team that still has members or applications"},
	{team.ErrCodeSpaceExhausted, http.StatusConflict, "TEAM_CODE_EXHAUSTED", "Could not generate a unique team code"},
}

// writeError translates a service error into a response. Unknown errors are
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	requestID := middleware.GetRequestID(r.Context())
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			response.Err(w, m.status, m.code, m.message, requestID)
			return
		}
	}
	slog.Error("failed to "+op, "error", err, "requestId", requestID)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op, requestID)
}
