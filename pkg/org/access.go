package org

import (
	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/pkg/domain"
)

// ValidateAccess decides whether the caller may touch the given organization.
// A user context has access iff the organization appears in its materialized
// membership list; a credential context iff it is bound to that organization.
// Pure decision over already-loaded data - no store I/O.
func ValidateAccess(authCtx domain.AuthContext, orgID uuid.UUID) error {
	if authCtx.HasUserContext() {
		if _, ok := authCtx.User().MembershipIn(orgID); ok {
			return nil
		}
		return domain.ErrPermissionDenied
	}
	if authCtx.OrganizationID() == orgID {
		return nil
	}
	return domain.ErrPermissionDenied
}

// ValidateAdminAccess decides whether the caller may administer the given
// organization. Credential contexts can never hold admin rights. On success
// it returns the caller's own membership record so callers know their role.
func ValidateAdminAccess(authCtx domain.AuthContext, orgID uuid.UUID) (*domain.Membership, error) {
	if err := ValidateAccess(authCtx, orgID); err != nil {
		return nil, err
	}

	if !authCtx.HasUserContext() {
		return nil, domain.ErrAdminRequired
	}

	m, ok := authCtx.User().MembershipIn(orgID)
	if !ok || !m.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	return m, nil
}
