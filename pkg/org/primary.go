package org

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/repository"
)

// setPrimary re-establishes "exactly one primary organization" for a user:
// clear the flag on all memberships, then set it on the (user, org) pair.
// Both steps run on the supplied Querier, which must be a transaction so a
// failing set undoes the clear. This is the only code path that touches the
// primary flag.
func (s *Service) setPrimary(ctx context.Context, q repository.Querier, userID, orgID uuid.UUID) error {
	slog.InfoContext(ctx, "setting primary organization", "user_id", userID, "org_id", orgID)

	if err := s.memberships.ClearPrimaryTx(ctx, q, userID); err != nil {
		return err
	}

	rows, err := s.memberships.SetPrimaryTx(ctx, q, userID, orgID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

// SetPrimaryOrganization marks the given organization as the user's primary
// one after validating that the caller can see the organization and that the
// target membership exists.
func (s *Service) SetPrimaryOrganization(ctx context.Context, userID, orgID uuid.UUID, authCtx domain.AuthContext) error {
	if _, err := s.GetUserMembership(ctx, orgID, userID, authCtx); err != nil {
		return err
	}

	return repository.Tx(ctx, s.db, func(tx *sql.Tx) error {
		return s.setPrimary(ctx, tx, userID, orgID)
	})
}
