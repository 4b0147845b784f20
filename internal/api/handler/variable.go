package handler

import (
	"net/http"

	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/api/response"
	"github.com/teamvault/teamvault/internal/api/validation"
	"github.com/teamvault/teamvault/internal/variable"
)

type createVariableRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type updateVariableRequest struct {
	Key   *string `json:"key"`
	Value *string `json:"value"`
}

type variableResponse struct {
	ID            string `json:"id"`
	ApplicationID string `json:"applicationId"`
	Key           string `json:"key"`
	Value         string `json:"value"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

func toVariableResponse(v *variable.Variable) variableResponse {
	return variableResponse{
		ID:            v.ID.String(),
		ApplicationID: v.ApplicationID.String(),
		Key:           v.Key,
		Value:         v.Value,
		CreatedAt:     formatTime(v.CreatedAt),
		UpdatedAt:     formatTime(v.UpdatedAt),
	}
}

// VariableHandler handles variable endpoints. Every operation is authorized
// against the owning application's team.
type VariableHandler struct {
	vars  *variable.Service
	guard ApplicationAuthorizer
}

// NewVariableHandler creates a new VariableHandler.
func NewVariableHandler(vars *variable.Service, guard ApplicationAuthorizer) *VariableHandler {
	return &VariableHandler{vars: vars, guard: guard}
}

// List handles GET /applications/{id}/variables.
func (h *VariableHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	appID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.guard.AuthorizeApplication(r.Context(), middleware.GetPrincipal(r.Context()), appID); err != nil {
		writeError(w, r, err, "authorize application")
		return
	}

	vars, err := h.vars.List(r.Context(), appID)
	if err != nil {
		writeError(w, r, err, "list variables")
		return
	}

	items := make([]variableResponse, 0, len(vars))
	for i := range vars {
		items = append(items, toVariableResponse(&vars[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, len(items), requestID)
}

// Create handles POST /applications/{id}/variables.
func (h *VariableHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	appID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.guard.AuthorizeApplication(r.Context(), p, appID); err != nil {
		writeError(w, r, err, "authorize application")
		return
	}

	var req createVariableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, r, validation.ValidateCreateVariableRequest(validation.CreateVariableRequest{
		Key:   req.Key,
		Value: req.Value,
	})) {
		return
	}

	v, err := h.vars.Create(r.Context(), appID, req.Key, req.Value, p.UserID())
	if err != nil {
		writeError(w, r, err, "create variable")
		return
	}

	response.Success(w, http.StatusCreated, toVariableResponse(v), requestID)
}

// Update handles PUT /variables/{id}.
func (h *VariableHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	current, ok := h.authorizedVariable(w, r)
	if !ok {
		return
	}

	var req updateVariableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, r, validation.ValidateUpdateVariableRequest(validation.UpdateVariableRequest{
		Key:   req.Key,
		Value: req.Value,
	})) {
		return
	}

	v, err := h.vars.Update(r.Context(), current.ID, variable.UpdateFields{Key: req.Key, Value: req.Value}, p.UserID())
	if err != nil {
		writeError(w, r, err, "update variable")
		return
	}

	response.Success(w, http.StatusOK, toVariableResponse(v), requestID)
}

// Delete handles DELETE /variables/{id}.
func (h *VariableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	current, ok := h.authorizedVariable(w, r)
	if !ok {
		return
	}

	if err := h.vars.Delete(r.Context(), current.ID, p.UserID()); err != nil {
		writeError(w, r, err, "delete variable")
		return
	}

	response.NoContent(w)
}

func (h *VariableHandler) authorizedVariable(w http.ResponseWriter, r *http.Request) (*variable.Variable, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}

	v, err := h.vars.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "load variable")
		return nil, false
	}

	if err := h.guard.AuthorizeApplication(r.Context(), middleware.GetPrincipal(r.Context()), v.ApplicationID); err != nil {
		writeError(w, r, err, "authorize application")
		return nil, false
	}
	return v, true
}
