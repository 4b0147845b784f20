package handler

import (
	"net/http"
	"strings"

	"github.com/teamvault/teamvault/internal/api/middleware"
	"github.com/teamvault/teamvault/internal/api/response"
	"github.com/teamvault/teamvault/internal/api/validation"
	"github.com/teamvault/teamvault/internal/token"
)

type revokeTokenRequest struct {
	Token string `json:"token"`
}

type issuedTokenResponse struct {
	Token     string `json:"token"`
	CreatedAt string `json:"createdAt"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	CreatedAt string `json:"createdAt"`
	Revoked   bool   `json:"revoked"`
}

type revokeTokenResponse struct {
	Success bool `json:"success"`
}

// TokenHandler handles API token endpoints. Callers only ever see their own tokens.
type TokenHandler struct {
	tokens *token.Store
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokens *token.Store) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// Issue handles POST /api/tokens.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	t, err := h.tokens.Issue(r.Context(), p.UserID())
	if err != nil {
		writeError(w, r, err, "issue token")
		return
	}

	response.Success(w, http.StatusCreated, issuedTokenResponse{
		Token:     t.Token,
		CreatedAt: formatTime(t.CreatedAt),
	}, requestID)
}

// List handles GET /api/tokens.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	tokens, err := h.tokens.ListForUser(r.Context(), p.UserID())
	if err != nil {
		writeError(w, r, err, "list tokens")
		return
	}

	items := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		items = append(items, tokenResponse{
			Token:     t.Token,
			CreatedAt: formatTime(t.CreatedAt),
			Revoked:   t.Revoked,
		})
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, len(items), requestID)
}

// Revoke handles POST /api/tokens/revoke. A token that is unknown or owned by
// someone else yields 404.
func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p := middleware.GetPrincipal(r.Context())

	var req revokeTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationFailed(w, r, validation.ValidateRevokeTokenRequest(validation.RevokeTokenRequest{Token: req.Token})) {
		return
	}

	if err := h.tokens.RevokeOwned(r.Context(), strings.TrimSpace(req.Token), p.UserID()); err != nil {
		writeError(w, r, err, "revoke token")
		return
	}

	response.Success(w, http.StatusOK, revokeTokenResponse{Success: true}, requestID)
}
