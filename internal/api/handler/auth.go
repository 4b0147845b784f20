package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/api/response"
	"github.com/teamvault/teamvault/internal/api/validation"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/team"
)

// SessionIssuer signs session cookie values.
type SessionIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

// TeamGetter loads teams by id.
type TeamGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*team.Team, error)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	TeamName string `json:"teamName"`
	TeamCode string `json:"teamCode"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	TeamID    *string `json:"teamId"`
	CreatedAt string  `json:"createdAt"`
}

func toUserResponse(u *auth.User) userResponse {
	resp := userResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
	}
	if u.TeamID != nil {
		id := u.TeamID.String()
		resp.TeamID = &id
	}
	return resp
}

type sessionResponse struct {
	User userResponse  `json:"user"`
	Team *teamResponse `json:"team,omitempty"`
}

type meResponse struct {
	Principal string        `json:"principal"`
	User      userResponse  `json:"user"`
	Team      *teamResponse `json:"team"`
}

// AuthHandler handles registration, login, logout and the current-user endpoint.
type AuthHandler struct {
	auth         *auth.Service
	teams        TeamGetter
	sessions     SessionIssuer
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service, teams TeamGetter, sessions SessionIssuer, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		teams:        teams,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

// Register handles POST /auth/register. teamName creates a new team, teamCode
// joins an existing one, neither registers a user without a team.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationFailed(w, r, validation.ValidateRegisterRequest(validation.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		TeamName: req.TeamName,
		TeamCode: req.TeamCode,
	})) {
		return
	}

	in := auth.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password}

	var (
		u   *auth.User
		t   *team.Team
		err error
	)
	switch {
	case strings.TrimSpace(req.TeamName) != "":
		u, t, err = h.auth.RegisterWithTeam(r.Context(), in, req.TeamName)
	case strings.TrimSpace(req.TeamCode) != "":
		u, t, err = h.auth.RegisterWithCode(r.Context(), in, req.TeamCode)
	default:
		u, err = h.auth.Register(r.Context(), in)
	}
	if err != nil {
		writeError(w, r, err, "register user")
		return
	}

	if !h.startSession(w, r, u.ID) {
		return
	}

	resp := sessionResponse{User: toUserResponse(u)}
	if t != nil {
		tr := toTeamResponse(t, true)
		resp.Team = &tr
	}
	response.Success(w, http.StatusCreated, resp, requestID)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationFailed(w, r, validation.ValidateLoginRequest(validation.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})) {
		return
	}

	u, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, "log in")
		return
	}

	if !h.startSession(w, r, u.ID) {
		return
	}

	response.Success(w, http.StatusOK, sessionResponse{User: toUserResponse(u)}, requestID)
}

// Logout handles POST /auth/logout by expiring the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.NoContent(w)
}

// Me handles GET /me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	u, err := h.auth.Get(r.Context(), p.UserID())
	if err != nil {
		writeError(w, r, err, "load user")
		return
	}

	resp := meResponse{Principal: access.Kind(p), User: toUserResponse(u)}
	if teamID := p.TeamID(); teamID != nil {
		t, err := h.teams.Get(r.Context(), *teamID)
		if err != nil {
			writeError(w, r, err, "load team")
			return
		}
		tr := toTeamResponse(t, false)
		resp.Team = &tr
	}

	response.Success(w, http.StatusOK, resp, requestID)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID uuid.UUID) bool {
	value, expiresAt, err := h.sessions.Issue(userID)
	if err != nil {
		writeError(w, r, err, "start session")
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}
