package org

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/repository"
)

// AddMember adds a user to an organization. Requires admin access. A user's
// first-ever membership is always primary regardless of isPrimary; when the
// membership ends up primary the invariant manager normalizes the flag within
// the same transaction.
func (s *Service) AddMember(ctx context.Context, orgID, userID uuid.UUID, role domain.OrgRole, authCtx domain.AuthContext, isPrimary bool) (*domain.Membership, error) {
	if _, err := ValidateAdminAccess(authCtx, orgID); err != nil {
		return nil, err
	}
	if !domain.IsValidOrgRole(string(role)) {
		return nil, domain.ErrInvalidRole
	}

	var membership *domain.Membership
	err := repository.Tx(ctx, s.db, func(tx *sql.Tx) error {
		count, err := s.memberships.CountByUserIDTx(ctx, tx, userID)
		if err != nil {
			return err
		}

		// First organization is always primary.
		if count == 0 {
			isPrimary = true
		}

		// The row is inserted non-primary; the clear+set pair flips the
		// flag so the insert never collides with the user's current
		// primary row under the one-primary unique index.
		membership = domain.NewMembership(userID, orgID, role, false)
		if err := s.memberships.CreateTx(ctx, tx, membership); err != nil {
			return err
		}

		if isPrimary {
			if err := s.setPrimary(ctx, tx, userID, orgID); err != nil {
				return err
			}
			membership.IsPrimary = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// RemoveMember removes a user from an organization and reports whether a row
// was actually deleted.
//
// Self-removal requires an existing membership; an owner removing themselves
// must leave at least one other owner behind. Removing someone else requires
// admin access. The last-owner check applies only to self-removal, and shares
// the DELETE's transaction so concurrent removals cannot both pass it.
func (s *Service) RemoveMember(ctx context.Context, orgID, userID uuid.UUID, authCtx domain.AuthContext) (bool, error) {
	selfRemoval := authCtx.HasUserContext() && authCtx.User().ID == userID
	if selfRemoval {
		if err := ValidateAccess(authCtx, orgID); err != nil {
			return false, err
		}
	} else {
		if _, err := ValidateAdminAccess(authCtx, orgID); err != nil {
			return false, err
		}
	}

	var deleted bool
	err := repository.Tx(ctx, s.db, func(tx *sql.Tx) error {
		if selfRemoval {
			m, err := s.memberships.GetByUserAndOrgTx(ctx, tx, userID, orgID)
			if err != nil {
				return err
			}

			if m.IsOwner() {
				owners, err := s.memberships.ListOwnersTx(ctx, tx, orgID, &userID)
				if err != nil {
					return err
				}
				if len(owners) == 0 {
					return domain.ErrLastOwner
				}
			}
		}

		var err error
		deleted, err = s.memberships.DeleteTx(ctx, tx, orgID, userID)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// UpdateMemberRole changes a member's role in place. Requires admin access.
func (s *Service) UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, newRole domain.OrgRole, authCtx domain.AuthContext) (*domain.Membership, error) {
	if _, err := ValidateAdminAccess(authCtx, orgID); err != nil {
		return nil, err
	}
	if !domain.IsValidOrgRole(string(newRole)) {
		return nil, domain.ErrInvalidRole
	}

	membership, err := s.GetUserMembership(ctx, orgID, userID, authCtx)
	if err != nil {
		return nil, err
	}

	if err := s.memberships.UpdateRole(ctx, orgID, userID, newRole); err != nil {
		return nil, err
	}

	membership.Role = newRole
	return membership, nil
}

// GetUserMembership retrieves the membership of a user in an organization.
// The caller must have access to the organization; a missing pair is
// ErrMembershipNotFound.
func (s *Service) GetUserMembership(ctx context.Context, orgID, userID uuid.UUID, authCtx domain.AuthContext) (*domain.Membership, error) {
	if err := ValidateAccess(authCtx, orgID); err != nil {
		return nil, err
	}
	return s.memberships.GetByUserAndOrg(ctx, userID, orgID)
}
