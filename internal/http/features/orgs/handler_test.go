package orgs

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-orgs/internal/http/middleware"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/org"
	"github.com/tendant/simple-orgs/pkg/repository"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := org.NewService(db,
		repository.NewOrganizationsRepository(db),
		repository.NewMembershipsRepository(db),
	)
	return NewHandler(slog.Default(), svc), mock
}

func newTestRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	Routes(r, h)
	return r
}

func withUserContext(req *http.Request, userID uuid.UUID, role domain.OrgRole, orgIDs ...uuid.UUID) *http.Request {
	var memberships []domain.Membership
	for _, orgID := range orgIDs {
		memberships = append(memberships, domain.Membership{UserID: userID, OrgID: orgID, Role: role})
	}
	authCtx := domain.NewUserContext(domain.AuthUser{
		ID:          userID,
		Email:       "caller@example.com",
		Memberships: memberships,
	})
	return req.WithContext(context.WithValue(req.Context(), middleware.AuthContextKey, authCtx))
}

func withAPIKeyContext(req *http.Request, orgID uuid.UUID) *http.Request {
	authCtx := domain.NewAPIKeyContext(orgID)
	return req.WithContext(context.WithValue(req.Context(), middleware.AuthContextKey, authCtx))
}

func TestGet_ReturnsOrganization(t *testing.T) {
	h, mock := newTestHandler(t)
	userID := uuid.New()
	orgID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM organizations WHERE id`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "external_org_id", "modified_by_email", "created_at", "modified_at",
		}).AddRow(orgID, "Acme", "widgets", nil, nil, now, now))

	req := httptest.NewRequest(http.MethodGet, "/"+orgID.String(), nil)
	req = withUserContext(req, userID, domain.OrgRoleMember, orgID)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp OrganizationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, orgID.String(), resp.ID)
	require.Equal(t, "Acme", resp.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_DeniesNonMember(t *testing.T) {
	h, mock := newTestHandler(t)
	userID := uuid.New()
	orgID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/"+orgID.String(), nil)
	req = withUserContext(req, userID, domain.OrgRoleMember, uuid.New())
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMine_OrdersPrimaryFirst(t *testing.T) {
	h, mock := newTestHandler(t)
	userID := uuid.New()
	primaryOrg := uuid.New()
	otherOrg := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INNER JOIN memberships`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "role", "is_primary", "created_at", "modified_at",
		}).
			AddRow(primaryOrg, "Primary Co", "", "owner", true, now, now).
			AddRow(otherOrg, "Other Co", "", "member", false, now, now))

	req := httptest.NewRequest(http.MethodGet, "/mine", nil)
	req = withUserContext(req, userID, domain.OrgRoleMember, primaryOrg, otherOrg)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []OrganizationWithRoleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	require.True(t, resp[0].IsPrimary)
	require.Equal(t, "owner", resp[0].Role)
	require.False(t, resp[1].IsPrimary)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMine_RequiresUserContext(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/mine", nil)
	req = withAPIKeyContext(req, uuid.New())
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreate_RequiresUserContext(t *testing.T) {
	h, mock := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Acme"}`))
	req = withAPIKeyContext(req, uuid.New())
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPrimary_RequiresMembership(t *testing.T) {
	h, mock := newTestHandler(t)
	userID := uuid.New()
	orgID := uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/"+orgID.String()+"/primary", nil)
	req = withUserContext(req, userID, domain.OrgRoleMember, uuid.New())
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_SetsExternalOrgID(t *testing.T) {
	h, mock := newTestHandler(t)
	userID := uuid.New()
	orgID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM organizations WHERE id`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "external_org_id", "modified_by_email", "created_at", "modified_at",
		}).AddRow(orgID, "Acme", "widgets", nil, nil, now, now))
	mock.ExpectExec(`UPDATE organizations`).
		WithArgs(orgID, "Acme", "widgets", "ext-42", "caller@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"external_org_id":"ext-42"}`
	req := httptest.NewRequest(http.MethodPatch, "/"+orgID.String(), strings.NewReader(body))
	req = withUserContext(req, userID, domain.OrgRoleAdmin, orgID)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_InvalidID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/not-a-uuid", nil)
	req = withUserContext(req, uuid.New(), domain.OrgRoleMember)
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
