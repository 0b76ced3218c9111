package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/pkg/domain"
)

// MembershipsRepository handles membership persistence.
type MembershipsRepository struct {
	db *sql.DB
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

const membershipColumns = `user_id, organization_id, role, is_primary, created_at, updated_at`

// roleRankExpr orders roles owner > admin > member for display.
const roleRankExpr = `CASE role WHEN 'owner' THEN 3 WHEN 'admin' THEN 2 WHEN 'member' THEN 1 ELSE 0 END`

func scanMembership(row interface{ Scan(dest ...any) error }) (*domain.Membership, error) {
	var m domain.Membership
	err := row.Scan(
		&m.UserID,
		&m.OrgID,
		&m.Role,
		&m.IsPrimary,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMemberships(rows *sql.Rows) ([]*domain.Membership, error) {
	var memberships []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// Create creates a new membership.
func (r *MembershipsRepository) Create(ctx context.Context, m *domain.Membership) error {
	return r.CreateTx(ctx, r.db, m)
}

// CreateTx creates a new membership within an ambient transaction.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, m *domain.Membership) error {
	query := `
		INSERT INTO memberships (user_id, organization_id, role, is_primary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		m.UserID,
		m.OrgID,
		m.Role,
		m.IsPrimary,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

// GetByUserAndOrg retrieves the membership for a (user, organization) pair.
func (r *MembershipsRepository) GetByUserAndOrg(ctx context.Context, userID, orgID uuid.UUID) (*domain.Membership, error) {
	return r.GetByUserAndOrgTx(ctx, r.db, userID, orgID)
}

// GetByUserAndOrgTx retrieves the membership for a (user, organization) pair
// within an ambient transaction.
func (r *MembershipsRepository) GetByUserAndOrgTx(ctx context.Context, q Querier, userID, orgID uuid.UUID) (*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1 AND organization_id = $2
	`

	m, err := scanMembership(q.QueryRowContext(ctx, query, userID, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByUserID retrieves all memberships for a user.
func (r *MembershipsRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

// CountByUserIDTx counts a user's memberships within an ambient transaction.
func (r *MembershipsRepository) CountByUserIDTx(ctx context.Context, q Querier, userID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE user_id = $1`, userID,
	).Scan(&count)
	return count, err
}

// ListByOrgID retrieves all members of an organization, ordered role
// descending (owner > admin > member) then by user ID for determinism.
func (r *MembershipsRepository) ListByOrgID(ctx context.Context, orgID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE organization_id = $1
		ORDER BY ` + roleRankExpr + ` DESC, user_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

// ListOwners retrieves the owner-role memberships of an organization,
// optionally excluding one user.
func (r *MembershipsRepository) ListOwners(ctx context.Context, orgID uuid.UUID, excludeUserID *uuid.UUID) ([]*domain.Membership, error) {
	return r.ListOwnersTx(ctx, r.db, orgID, excludeUserID)
}

// ListOwnersTx retrieves the owner-role memberships of an organization within
// an ambient transaction.
func (r *MembershipsRepository) ListOwnersTx(ctx context.Context, q Querier, orgID uuid.UUID, excludeUserID *uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE organization_id = $1 AND role = 'owner'
	`
	args := []any{orgID}
	if excludeUserID != nil {
		query += ` AND user_id != $2`
		args = append(args, *excludeUserID)
	}
	query += ` ORDER BY user_id ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

// ClearPrimaryTx clears the primary flag on all of a user's memberships.
func (r *MembershipsRepository) ClearPrimaryTx(ctx context.Context, q Querier, userID uuid.UUID) error {
	_, err := q.ExecContext(ctx,
		`UPDATE memberships SET is_primary = false, updated_at = $2 WHERE user_id = $1`,
		userID, time.Now(),
	)
	return err
}

// SetPrimaryTx sets the primary flag on the (user, organization) membership
// and returns the number of rows affected.
func (r *MembershipsRepository) SetPrimaryTx(ctx context.Context, q Querier, userID, orgID uuid.UUID) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE memberships SET is_primary = true, updated_at = $3 WHERE user_id = $1 AND organization_id = $2`,
		userID, orgID, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// UpdateRole updates the role of a (user, organization) membership.
func (r *MembershipsRepository) UpdateRole(ctx context.Context, orgID, userID uuid.UUID, role domain.OrgRole) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET role = $3, updated_at = $4 WHERE user_id = $1 AND organization_id = $2`,
		userID, orgID, role, time.Now(),
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

// Delete removes a (user, organization) membership. Returns whether a row was
// actually deleted.
func (r *MembershipsRepository) Delete(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	return r.DeleteTx(ctx, r.db, orgID, userID)
}

// DeleteTx removes a (user, organization) membership within an ambient
// transaction.
func (r *MembershipsRepository) DeleteTx(ctx context.Context, q Querier, orgID, userID uuid.UUID) (bool, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND organization_id = $2`,
		userID, orgID,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListOrganizationsWithRole retrieves all organizations a user belongs to,
// annotated with role and primary flag, ordered primary-first then by name.
func (r *MembershipsRepository) ListOrganizationsWithRole(ctx context.Context, userID uuid.UUID) ([]*domain.OrganizationWithRole, error) {
	query := `
		SELECT o.id, o.name, o.description, m.role, m.is_primary, o.created_at, o.modified_at
		FROM organizations o
		INNER JOIN memberships m ON o.id = m.organization_id
		WHERE m.user_id = $1
		ORDER BY m.is_primary DESC, o.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.OrganizationWithRole
	for rows.Next() {
		var owr domain.OrganizationWithRole
		err := rows.Scan(
			&owr.ID,
			&owr.Name,
			&owr.Description,
			&owr.Role,
			&owr.IsPrimary,
			&owr.CreatedAt,
			&owr.ModifiedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, &owr)
	}
	return results, rows.Err()
}
