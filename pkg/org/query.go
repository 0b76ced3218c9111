package org

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/pkg/domain"
)

// GetOrganization retrieves an organization the caller has access to.
func (s *Service) GetOrganization(ctx context.Context, orgID uuid.UUID, authCtx domain.AuthContext) (*domain.Organization, error) {
	if err := ValidateAccess(authCtx, orgID); err != nil {
		return nil, err
	}
	return s.orgs.GetByID(ctx, orgID)
}

// ListOrganizations retrieves the organizations visible to the caller: all of
// a user's organizations, or the single organization a credential is bound to.
func (s *Service) ListOrganizations(ctx context.Context, authCtx domain.AuthContext, limit, offset int) ([]*domain.Organization, error) {
	var ids []uuid.UUID
	if authCtx.HasUserContext() {
		for _, m := range authCtx.User().Memberships {
			ids = append(ids, m.OrgID)
		}
		if len(ids) == 0 {
			return nil, nil
		}
	} else {
		ids = []uuid.UUID{authCtx.OrganizationID()}
	}

	return s.orgs.ListByIDs(ctx, ids, limit, offset)
}

// UpdateOrganization holds the mutable organization attributes.
type UpdateOrganization struct {
	Name          *string
	Description   *string
	ExternalOrgID *string
}

// Update updates an organization the caller has access to. User contexts
// stamp the caller's email for the audit trail.
func (s *Service) Update(ctx context.Context, orgID uuid.UUID, in UpdateOrganization, authCtx domain.AuthContext) (*domain.Organization, error) {
	if err := ValidateAccess(authCtx, orgID); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		org.Name = *in.Name
	}
	if in.Description != nil {
		org.Description = *in.Description
	}
	if in.ExternalOrgID != nil {
		org.ExternalOrgID = in.ExternalOrgID
	}
	if authCtx.HasUserContext() {
		email := authCtx.User().Email
		org.ModifiedByEmail = &email
	}

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Remove deletes an organization and returns the deleted record. Membership
// and API-key rows cascade at the storage layer.
func (s *Service) Remove(ctx context.Context, orgID uuid.UUID) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := s.orgs.Delete(ctx, orgID); err != nil {
		return nil, err
	}
	return org, nil
}

// ListOrganizationsWithRole retrieves all organizations the user belongs to,
// annotated with role and primary flag, ordered primary-first then by name.
func (s *Service) ListOrganizationsWithRole(ctx context.Context, userID uuid.UUID) ([]*domain.OrganizationWithRole, error) {
	return s.memberships.ListOrganizationsWithRole(ctx, userID)
}

// ListMembers retrieves an organization's memberships ordered role-descending
// then by user ID. The caller must have access to the organization.
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID, authCtx domain.AuthContext) ([]*domain.Membership, error) {
	if err := ValidateAccess(authCtx, orgID); err != nil {
		return nil, err
	}
	return s.memberships.ListByOrgID(ctx, orgID)
}

// ListOwners retrieves an organization's owner-role memberships, optionally
// excluding one user. The caller must have access to the organization.
func (s *Service) ListOwners(ctx context.Context, orgID uuid.UUID, authCtx domain.AuthContext, excludeUserID *uuid.UUID) ([]*domain.Membership, error) {
	if err := ValidateAccess(authCtx, orgID); err != nil {
		return nil, err
	}
	return s.memberships.ListOwners(ctx, orgID, excludeUserID)
}
