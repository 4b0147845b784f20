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
)

type applicationRequest struct {
	Name string `json:"name"`
}

type applicationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TeamID    string `json:"teamId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toApplicationResponse(a *application.Application) applicationResponse {
	return applicationResponse{
		ID:        a.ID.String(),
		Name:      a.Name,
		TeamID:    a.TeamID.String(),
		CreatedAt: formatTime(a.CreatedAt),
		UpdatedAt: formatTime(a.UpdatedAt),
	}
}

// ApplicationAuthorizer checks that an application belongs to the caller's team.
type ApplicationAuthorizer interface {
	AuthorizeApplication(ctx context.Context, p access.Principal, applicationID uuid.UUID) error
}

// ApplicationHandler handles application endpoints.
type ApplicationHandler struct {
	apps  *application.Service
	guard ApplicationAuthorizer
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(apps *application.Service, guard ApplicationAuthorizer) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, guard: guard}
}

// List handles GET /applications.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := access.RequireTeam(middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, r, err, "list applications")
		return
	}

	apps, err := h.apps.ListByTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, r, err, "list applications")
		return
	}

	items := make([]applicationResponse, 0, len(apps))
	for i := range apps {
		items = append(items, toApplicationResponse(&apps[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, len(items), requestID)
}

// Create handles POST /applications. The application is owned by the caller's team.
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	teamID, err := access.RequireTeam(p)
	if err != nil {
		writeError(w, r, err, "create application")
		return
	}

	var req applicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, r, validation.ValidateApplicationRequest(validation.ApplicationRequest{Name: req.Name})) {
		return
	}

	a, err := h.apps.Create(r.Context(), req.Name, teamID, p.UserID())
	if err != nil {
		writeError(w, r, err, "create application")
		return
	}

	response.Success(w, http.StatusCreated, toApplicationResponse(a), requestID)
}

// Get handles GET /applications/{id}.
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := h.authorizedApplicationID(w, r)
	if !ok {
		return
	}

	a, err := h.apps.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "load application")
		return
	}

	response.Success(w, http.StatusOK, toApplicationResponse(a), requestID)
}

// Update handles PUT /applications/{id}.
func (h *ApplicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	id, ok := h.authorizedApplicationID(w, r)
	if !ok {
		return
	}

	var req applicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, r, validation.ValidateApplicationRequest(validation.ApplicationRequest{Name: req.Name})) {
		return
	}

	a, err := h.apps.Rename(r.Context(), id, req.Name, p.UserID())
	if err != nil {
		writeError(w, r, err, "update application")
		return
	}

	response.Success(w, http.StatusOK, toApplicationResponse(a), requestID)
}

// Delete handles DELETE /applications/{id}, removing its variables first.
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	id, ok := h.authorizedApplicationID(w, r)
	if !ok {
		return
	}

	if err := h.apps.Delete(r.Context(), id, p.UserID()); err != nil {
		writeError(w, r, err, "delete application")
		return
	}

	response.NoContent(w)
}

func (h *ApplicationHandler) authorizedApplicationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return uuid.Nil, false
	}
	if err := h.guard.AuthorizeApplication(r.Context(), middleware.GetPrincipal(r.Context()), id); err != nil {
		writeError(w, r, err, "authorize application")
		return uuid.Nil, false
	}
	return id, true
}
