package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/pkg/domain"
)

// APIKeysRepository handles API key persistence.
type APIKeysRepository struct {
	db *sql.DB
}

// NewAPIKeysRepository creates a new API keys repository.
func NewAPIKeysRepository(db *sql.DB) *APIKeysRepository {
	return &APIKeysRepository{db: db}
}

const apiKeyColumns = `id, organization_id, key_hash, created_by_email, expires_at, created_at`

func scanAPIKey(row interface{ Scan(dest ...any) error }) (*domain.APIKey, error) {
	var key domain.APIKey
	err := row.Scan(
		&key.ID,
		&key.OrgID,
		&key.KeyHash,
		&key.CreatedByEmail,
		&key.ExpiresAt,
		&key.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// Create creates a new API key.
func (r *APIKeysRepository) Create(ctx context.Context, key *domain.APIKey) error {
	return r.CreateTx(ctx, r.db, key)
}

// CreateTx creates a new API key within an ambient transaction.
func (r *APIKeysRepository) CreateTx(ctx context.Context, q Querier, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (id, organization_id, key_hash, created_by_email, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		key.ID,
		key.OrgID,
		key.KeyHash,
		key.CreatedByEmail,
		key.ExpiresAt,
		key.CreatedAt,
	)
	return err
}

// GetByHash retrieves an API key by its hash. Used for credential resolution,
// so it carries no organization scoping.
func (r *APIKeysRepository) GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1`

	key, err := scanAPIKey(r.db.QueryRowContext(ctx, query, keyHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return key, nil
}

// ListByOrgID retrieves all API keys for an organization.
func (r *APIKeysRepository) ListByOrgID(ctx context.Context, orgID uuid.UUID) ([]*domain.APIKey, error) {
	query := `
		SELECT ` + apiKeyColumns + `
		FROM api_keys
		WHERE organization_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*domain.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Delete removes an API key scoped to its organization. Returns whether a row
// was actually deleted.
func (r *APIKeysRepository) Delete(ctx context.Context, orgID, keyID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM api_keys WHERE id = $1 AND organization_id = $2`,
		keyID, orgID,
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
