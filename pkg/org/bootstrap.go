package org

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/repository"
)

// CreateOrganization holds the attributes for a new organization.
type CreateOrganization struct {
	Name          string
	Description   string
	ExternalOrgID *string
}

// CreateWithOwner creates an organization together with its first owning
// membership in a single transaction. The new organization becomes the
// owner's primary one iff the owner had no memberships before.
func (s *Service) CreateWithOwner(ctx context.Context, in CreateOrganization, ownerUserID uuid.UUID) (*domain.Organization, error) {
	var org *domain.Organization
	err := repository.Tx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		org, err = s.CreateWithOwnerTx(ctx, tx, in, ownerUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// CreateWithOwnerTx is the unit-of-work form of CreateWithOwner: it
// participates in the supplied transaction without committing it, leaving
// lifecycle control to the caller.
func (s *Service) CreateWithOwnerTx(ctx context.Context, tx *sql.Tx, in CreateOrganization, ownerUserID uuid.UUID) (*domain.Organization, error) {
	org := domain.NewOrganization(in.Name, in.Description)
	org.ExternalOrgID = in.ExternalOrgID

	if err := s.orgs.CreateTx(ctx, tx, org); err != nil {
		return nil, err
	}

	count, err := s.memberships.CountByUserIDTx(ctx, tx, ownerUserID)
	if err != nil {
		return nil, err
	}
	isPrimary := count == 0

	membership := domain.NewMembership(ownerUserID, org.ID, domain.OrgRoleOwner, isPrimary)
	if err := s.memberships.CreateTx(ctx, tx, membership); err != nil {
		return nil, err
	}

	if isPrimary {
		// Redundant on a fresh membership, but serializes against a
		// concurrent primary reassignment for the same user.
		if err := s.setPrimary(ctx, tx, ownerUserID, org.ID); err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "organization created with owner",
		"org_id", org.ID, "owner_user_id", ownerUserID, "is_primary", isPrimary)

	return org, nil
}

// Create is deliberately unsupported: an organization without an owning
// membership is a consistency violation, so creation goes through
// CreateWithOwner.
func (s *Service) Create(ctx context.Context, authCtx domain.AuthContext) (*domain.Organization, error) {
	return nil, domain.ErrDirectCreateUnsupported
}
