package handler

import (
	"net/http"
	"strconv"

	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/api/response"
	"github.com/teamvault/teamvault/internal/audit"
)

type auditEntryResponse struct {
	ID         string  `json:"id"`
	Action     string  `json:"action"`
	TargetType string  `json:"targetType"`
	TargetID   string  `json:"targetId"`
	UserID     *string `json:"userId"`
	CreatedAt  string  `json:"createdAt"`
}

// AuditHandler serves the audit trail of the caller's team.
type AuditHandler struct {
	trail *audit.Trail
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(trail *audit.Trail) *AuditHandler {
	return &AuditHandler{trail: trail}
}

// List handles GET /audit?action=&targetId=&page=&limit=. Only entries
// attributed to current members of the caller's team are returned, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := access.RequireTeam(middleware.GetPrincipal(r.Context()))
	if err != nil {
		writeError(w, r, err, "list audit entries")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{TeamID: &teamID}
	if v := q.Get("action"); v != "" {
		filter.Action = &v
	}
	if v := q.Get("targetId"); v != "" {
		filter.TargetID = &v
	}
	if v := q.Get("targetType"); v != "" {
		filter.TargetType = &v
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Normalize()

	result, err := h.trail.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "list audit entries")
		return
	}

	items := make([]auditEntryResponse, 0, len(result.Entries))
	for _, e := range result.Entries {
		item := auditEntryResponse{
			ID:         e.ID.String(),
			Action:     e.Action,
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			CreatedAt:  e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		}
		if e.UserID != nil {
			id := e.UserID.String()
			item.UserID = &id
		}
		items = append(items, item)
	}

	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}
