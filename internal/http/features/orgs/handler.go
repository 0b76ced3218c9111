package orgs

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/internal/http/features/common"
	"github.com/tendant/simple-orgs/internal/http/middleware"
	"github.com/tendant/simple-orgs/internal/httputil"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/org"
)

// Handler handles organization endpoints.
type Handler struct {
	logger  *slog.Logger
	service *org.Service
}

// NewHandler creates a new organizations handler.
func NewHandler(logger *slog.Logger, service *org.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// OrganizationResponse represents an organization in API responses.
type OrganizationResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// OrganizationWithRoleResponse adds the viewing user's role and primary flag.
type OrganizationWithRoleResponse struct {
	OrganizationResponse
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
}

// CreateRequest represents an organization creation request.
type CreateRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	ExternalOrgID *string `json:"external_org_id,omitempty"`
}

// UpdateRequest represents an organization update request.
type UpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	ExternalOrgID *string `json:"external_org_id,omitempty"`
}

func toOrganizationResponse(o *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:          o.ID.String(),
		Name:        o.Name,
		Description: o.Description,
		CreatedAt:   o.CreatedAt,
		ModifiedAt:  o.ModifiedAt,
	}
}

// List returns the organizations visible to the caller.
// GET /v1/orgs
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	organizations, err := h.service.ListOrganizations(r.Context(), authCtx, limit, offset)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := make([]OrganizationResponse, 0, len(organizations))
	for _, o := range organizations {
		resp = append(resp, toOrganizationResponse(o))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// ListMine returns the caller's organizations annotated with role and primary
// flag, ordered primary-first.
// GET /v1/orgs/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.HasUserContext() {
		httputil.Error(w, http.StatusUnauthorized, "a user session is required")
		return
	}

	entries, err := h.service.ListOrganizationsWithRole(r.Context(), authCtx.User().ID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := make([]OrganizationWithRoleResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, OrganizationWithRoleResponse{
			OrganizationResponse: OrganizationResponse{
				ID:          e.ID.String(),
				Name:        e.Name,
				Description: e.Description,
				CreatedAt:   e.CreatedAt,
				ModifiedAt:  e.ModifiedAt,
			},
			Role:      string(e.Role),
			IsPrimary: e.IsPrimary,
		})
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Create creates an organization with the caller as its first owner.
// POST /v1/orgs
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok || !authCtx.HasUserContext() {
		httputil.Error(w, http.StatusUnauthorized, "a user session is required")
		return
	}

	var req CreateRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	organization, err := h.service.CreateWithOwner(r.Context(), org.CreateOrganization{
		Name:          req.Name,
		Description:   req.Description,
		ExternalOrgID: req.ExternalOrgID,
	}, authCtx.User().ID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, toOrganizationResponse(organization))
}

// Get returns a single organization.
// GET /v1/orgs/{orgID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := h.callerAndOrg(w, r)
	if !ok {
		return
	}

	organization, err := h.service.GetOrganization(r.Context(), orgID, authCtx)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toOrganizationResponse(organization))
}

// Update updates an organization's display fields.
// PATCH /v1/orgs/{orgID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := h.callerAndOrg(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	organization, err := h.service.Update(r.Context(), orgID, org.UpdateOrganization{
		Name:          req.Name,
		Description:   req.Description,
		ExternalOrgID: req.ExternalOrgID,
	}, authCtx)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toOrganizationResponse(organization))
}

// SetPrimary marks the organization as the caller's primary one.
// PUT /v1/orgs/{orgID}/primary
func (h *Handler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := h.callerAndOrg(w, r)
	if !ok {
		return
	}
	if !authCtx.HasUserContext() {
		httputil.Error(w, http.StatusForbidden, "a user session is required")
		return
	}

	if err := h.service.SetPrimaryOrganization(r.Context(), authCtx.User().ID, orgID, authCtx); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]bool{"is_primary": true})
}

func (h *Handler) callerAndOrg(w http.ResponseWriter, r *http.Request) (domain.AuthContext, uuid.UUID, bool) {
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

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
