package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/api/response"
	"github.com/teamvault/teamvault/internal/api/validation"
	"github.com/teamvault/teamvault/internal/application"
	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/team"
	"github.com/teamvault/teamvault/internal/variable"
)

type teamRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type teamResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Code      *string `json:"code,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// toTeamResponse includes the join code only where showing it is audited or
// where the caller just created the team.
func toTeamResponse(t *team.Team, withCode bool) teamResponse {
	resp := teamResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
	if withCode {
		code := t.Code
		resp.Code = &code
	}
	return resp
}

type memberResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type teamOverviewResponse struct {
	Team          teamResponse          `json:"team"`
	Members       []memberResponse      `json:"members"`
	Applications  []applicationResponse `json:"applications"`
	VariableCount int                   `json:"variableCount"`
}

type inviteResponse struct {
	User              userResponse `json:"user"`
	TemporaryPassword string       `json:"temporaryPassword"`
}

// TeamAuthorizer checks team membership.
type TeamAuthorizer interface {
	AuthorizeTeam(p access.Principal, teamID uuid.UUID) error
}

// VariableLister lists an application's variables.
type VariableLister interface {
	List(ctx context.Context, applicationID uuid.UUID) ([]variable.Variable, error)
}

// TeamHandler handles team endpoints.
type TeamHandler struct {
	teams *team.Service
	auth  *auth.Service
	apps  *application.Service
	vars  VariableLister
	guard TeamAuthorizer
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teams *team.Service, authService *auth.Service, apps *application.Service, vars VariableLister, guard TeamAuthorizer) *TeamHandler {
	return &TeamHandler{
		teams: teams,
		auth:  authService,
		apps:  apps,
		vars:  vars,
		guard: guard,
	}
}

// Create handles POST /teams.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, r, validation.ValidateTeamRequest(validation.TeamRequest{Name: req.Name})) {
		return
	}

	t, err := h.auth.CreateTeam(r.Context(), p.UserID(), req.Name)
	if err != nil {
		writeError(w, r, err, "create team")
		return
	}

	response.Success(w, http.StatusCreated, toTeamResponse(t, true), requestID)
}

// Current handles GET /teams/current: the caller's team with its join code,
// members, applications and total variable count. Showing the code is
// recorded as TEAM_CODE_VIEWED.
func (h *TeamHandler) Current(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	teamID, err := access.RequireTeam(p)
	if err != nil {
		writeError(w, r, err, "load team")
		return
	}

	t, err := h.teams.Get(r.Context(), teamID)
	if err != nil {
		writeError(w, r, err, "load team")
		return
	}

	members, err := h.auth.Members(r.Context(), teamID)
	if err != nil {
		writeError(w, r, err, "list team members")
		return
	}

	apps, err := h.apps.ListByTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, r, err, "list applications")
		return
	}

	overview := teamOverviewResponse{
		Team:         toTeamResponse(t, true),
		Members:      make([]memberResponse, 0, len(members)),
		Applications: make([]applicationResponse, 0, len(apps)),
	}
	for _, m := range members {
		overview.Members = append(overview.Members, memberResponse{ID: m.ID.String(), Name: m.Name, Email: m.Email})
	}
	for i := range apps {
		vars, err := h.vars.List(r.Context(), apps[i].ID)
		if err != nil {
			writeError(w, r, err, "count variables")
			return
		}
		overview.VariableCount += len(vars)
		overview.Applications = append(overview.Applications, toApplicationResponse(&apps[i]))
	}

	if err := h.teams.RecordCodeViewed(r.Context(), teamID, p.UserID()); err != nil {
		writeError(w, r, err, "load team")
		return
	}

	response.Success(w, http.StatusOK, overview, requestID)
}

// Get handles GET /teams/{id}.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := h.authorizedTeamID(w, r)
	if !ok {
		return
	}

	t, err := h.teams.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "load team")
		return
	}

	response.Success(w, http.StatusOK, toTeamResponse(t, false), requestID)
}

// Update handles PUT /teams/{id}.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	id, ok := h.authorizedTeamID(w, r)
	if !ok {
		return
	}

	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, r, validation.ValidateTeamRequest(validation.TeamRequest{Name: req.Name})) {
		return
	}

	t, err := h.teams.Rename(r.Context(), id, req.Name, p.UserID())
	if err != nil {
		writeError(w, r, err, "update team")
		return
	}

	response.Success(w, http.StatusOK, toTeamResponse(t, false), requestID)
}

// Delete handles DELETE /teams/{id}. Only the last member of a team without
// applications can delete it.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	id, ok := h.authorizedTeamID(w, r)
	if !ok {
		return
	}

	if err := h.auth.LeaveAndDeleteTeam(r.Context(), p.UserID(), id); err != nil {
		writeError(w, r, err, "delete team")
		return
	}

	response.NoContent(w)
}

// Invite handles POST /teams/{id}/invite. The temporary password is returned
// in this response only.
func (h *TeamHandler) Invite(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	id, ok := h.authorizedTeamID(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, r, validation.ValidateInviteRequest(validation.InviteRequest{Name: req.Name, Email: req.Email})) {
		return
	}

	u, tempPassword, err := h.auth.Invite(r.Context(), id, p.UserID(), req.Name, req.Email)
	if err != nil {
		writeError(w, r, err, "invite member")
		return
	}

	response.Success(w, http.StatusCreated, inviteResponse{User: toUserResponse(u), TemporaryPassword: tempPassword}, requestID)
}

func (h *TeamHandler) authorizedTeamID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return uuid.Nil, false
	}
	if err := h.guard.AuthorizeTeam(middleware.GetPrincipal(r.Context()), id); err != nil {
		writeError(w, r, err, "authorize team")
		return uuid.Nil, false
	}
	return id, true
}
