package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tendant/simple-orgs/pkg/domain"
)

// OrganizationsRepository handles organization persistence.
type OrganizationsRepository struct {
	db *sql.DB
}

// NewOrganizationsRepository creates a new organizations repository.
func NewOrganizationsRepository(db *sql.DB) *OrganizationsRepository {
	return &OrganizationsRepository{db: db}
}

const organizationColumns = `id, name, description, external_org_id, modified_by_email, created_at, modified_at`

func scanOrganization(row interface{ Scan(dest ...any) error }) (*domain.Organization, error) {
	var org domain.Organization
	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Description,
		&org.ExternalOrgID,
		&org.ModifiedByEmail,
		&org.CreatedAt,
		&org.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Create creates a new organization.
func (r *OrganizationsRepository) Create(ctx context.Context, org *domain.Organization) error {
	return r.CreateTx(ctx, r.db, org)
}

// CreateTx creates a new organization within an ambient transaction.
func (r *OrganizationsRepository) CreateTx(ctx context.Context, q Querier, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, description, external_org_id, modified_by_email, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.Description,
		org.ExternalOrgID,
		org.ModifiedByEmail,
		org.CreatedAt,
		org.ModifiedAt,
	)
	return err
}

// GetByID retrieves an organization by ID.
func (r *OrganizationsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetByExternalID retrieves an organization by its identity-provider reference.
func (r *OrganizationsRepository) GetByExternalID(ctx context.Context, externalOrgID string) (*domain.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE external_org_id = $1`

	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, externalOrgID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// ListByIDs retrieves the organizations whose IDs appear in ids, ordered by
// name for determinism.
func (r *OrganizationsRepository) ListByIDs(ctx context.Context, ids []uuid.UUID, limit, offset int) ([]*domain.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE id = ANY($1)
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*domain.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// Update updates an organization's mutable fields.
func (r *OrganizationsRepository) Update(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, description = $3, external_org_id = $4, modified_by_email = $5, modified_at = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.Description,
		org.ExternalOrgID,
		org.ModifiedByEmail,
		time.Now(),
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

// Delete removes an organization. Membership and API-key rows cascade at the
// schema level.
func (r *OrganizationsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}
