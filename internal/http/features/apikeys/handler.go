package apikeys

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/internal/http/features/common"
	"github.com/tendant/simple-orgs/internal/http/middleware"
	"github.com/tendant/simple-orgs/internal/httputil"
	"github.com/tendant/simple-orgs/pkg/apikey"
	"github.com/tendant/simple-orgs/pkg/domain"
)

// Handler handles API key endpoints, nested under an organization.
type Handler struct {
	logger  *slog.Logger
	service *apikey.Service
}

// NewHandler creates a new API keys handler.
func NewHandler(logger *slog.Logger, service *apikey.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// KeyResponse represents an issued API key. Key is only populated on
// creation; it is never recoverable afterwards.
type KeyResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Key            string    `json:"key,omitempty"`
	CreatedByEmail *string   `json:"created_by_email,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// IssueRequest represents an API key issuance request.
type IssueRequest struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func toKeyResponse(k *domain.APIKey, rawKey string) KeyResponse {
	return KeyResponse{
		ID:             k.ID.String(),
		OrganizationID: k.OrgID.String(),
		Key:            rawKey,
		CreatedByEmail: k.CreatedByEmail,
		ExpiresAt:      k.ExpiresAt,
		CreatedAt:      k.CreatedAt,
	}
}

// Issue creates a new API key for the organization and returns the plaintext
// key once.
// POST /v1/orgs/{orgID}/api-keys
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := callerAndOrg(w, r)
	if !ok {
		return
	}

	var req IssueRequest
	if r.ContentLength > 0 {
		if err := httputil.Decode(r, &req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	key, rawKey, err := h.service.Issue(r.Context(), orgID, authCtx, req.ExpiresAt)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, toKeyResponse(key, rawKey))
}

// List returns the organization's API keys. Hashes and plaintext keys are
// never included.
// GET /v1/orgs/{orgID}/api-keys
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := callerAndOrg(w, r)
	if !ok {
		return
	}

	keys, err := h.service.List(r.Context(), orgID, authCtx)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := make([]KeyResponse, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, toKeyResponse(k, ""))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Revoke deletes an API key.
// DELETE /v1/orgs/{orgID}/api-keys/{keyID}
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := callerAndOrg(w, r)
	if !ok {
		return
	}
	keyID, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid key id")
		return
	}

	if err := h.service.Revoke(r.Context(), orgID, keyID, authCtx); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func callerAndOrg(w http.ResponseWriter, r *http.Request) (domain.AuthContext, uuid.UUID, bool) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return domain.AuthContext{}, uuid.Nil, false
	}
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid organization id")
		return domain.AuthContext{}, uuid.Nil, false
	}
	return authCtx, orgID, true
}
