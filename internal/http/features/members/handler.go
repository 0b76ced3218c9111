package members

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/internal/http/features/common"
	"github.com/tendant/simple-orgs/internal/http/middleware"
	"github.com/tendant/simple-orgs/internal/httputil"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/org"
)

// Handler handles membership endpoints, nested under an organization.
type Handler struct {
	logger  *slog.Logger
	service *org.Service
}

// NewHandler creates a new members handler.
func NewHandler(logger *slog.Logger, service *org.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MembershipResponse represents a membership in API responses.
type MembershipResponse struct {
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	Role           string    `json:"role"`
	IsPrimary      bool      `json:"is_primary"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AddRequest represents an add-member request.
type AddRequest struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
}

// UpdateRoleRequest represents a role change request.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func toMembershipResponse(m *domain.Membership) MembershipResponse {
	return MembershipResponse{
		UserID:         m.UserID.String(),
		OrganizationID: m.OrgID.String(),
		Role:           string(m.Role),
		IsPrimary:      m.IsPrimary,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// List returns the organization's members, owners first.
// GET /v1/orgs/{orgID}/members
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := callerAndOrg(w, r)
	if !ok {
		return
	}

	memberships, err := h.service.ListMembers(r.Context(), orgID, authCtx)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := make([]MembershipResponse, 0, len(memberships))
	for _, m := range memberships {
		resp = append(resp, toMembershipResponse(m))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Get returns a single member's membership.
// GET /v1/orgs/{orgID}/members/{userID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := callerAndOrg(w, r)
	if !ok {
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	membership, err := h.service.GetUserMembership(r.Context(), orgID, userID, authCtx)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toMembershipResponse(membership))
}

// Add adds a user to the organization.
// POST /v1/orgs/{orgID}/members
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := callerAndOrg(w, r)
	if !ok {
		return
	}

	var req AddRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	membership, err := h.service.AddMember(r.Context(), orgID, userID, domain.OrgRole(req.Role), authCtx, req.IsPrimary)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, toMembershipResponse(membership))
}

// UpdateRole changes a member's role.
// PATCH /v1/orgs/{orgID}/members/{userID}
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := callerAndOrg(w, r)
	if !ok {
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateRoleRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	membership, err := h.service.UpdateMemberRole(r.Context(), orgID, userID, domain.OrgRole(req.Role), authCtx)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toMembershipResponse(membership))
}

// Remove removes a member from the organization.
// DELETE /v1/orgs/{orgID}/members/{userID}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	authCtx, orgID, ok := callerAndOrg(w, r)
	if !ok {
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	removed, err := h.service.RemoveMember(r.Context(), orgID, userID, authCtx)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if !removed {
		httputil.Error(w, http.StatusNotFound, "membership not found")
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
