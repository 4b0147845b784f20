package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teamvault/teamvault/internal/access"
	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/api/response"
)

// VaultAuthorizer decides vault reads.
type VaultAuthorizer interface {
	AuthorizeVaultRead(ctx context.Context, creds access.Credentials, applicationID uuid.UUID) (access.Principal, error)
}

// VaultRenderer renders an application's variables.
type VaultRenderer interface {
	Render(ctx context.Context, applicationID uuid.UUID) (string, error)
}

// VaultHandler serves rendered .env documents.
type VaultHandler struct {
	guard  VaultAuthorizer
	reader VaultRenderer
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(guard VaultAuthorizer, reader VaultRenderer) *VaultHandler {
	return &VaultHandler{guard: guard, reader: reader}
}

// Get handles GET /api/vault/{appId}. The body is text/plain on success and
// the JSON error envelope otherwise. The read is audited before any byte of
// the body is written.
func (h *VaultHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	appID, err := uuid.Parse(chi.URLParam(r, "appId"))
	if err != nil {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Application not found", requestID)
		return
	}

	if _, err := h.guard.AuthorizeVaultRead(r.Context(), middleware.GetCredentials(r.Context()), appID); err != nil {
		writeError(w, r, err, "authorize vault read")
		return
	}

	body, err := h.reader.Render(r.Context(), appID)
	if err != nil {
		writeError(w, r, err, "render vault")
		return
	}

	response.Text(w, http.StatusOK, body)
}
