// Package apikey issues and validates organization-scoped API keys. A
// validated key resolves to a credential AuthContext bound to exactly one
// organization; it never carries admin rights.
package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-orgs/pkg/domain"
	"github.com/tendant/simple-orgs/pkg/org"
	"github.com/tendant/simple-orgs/pkg/repository"
)

const (
	// KeyPrefix is the prefix for all issued API keys.
	KeyPrefix = "org_"
	// keyBytes is the amount of random key material.
	keyBytes = 32
	// keyHexLen is the length of the hex portion of a key.
	keyHexLen = keyBytes * 2

	// DefaultTTL is the default key lifetime.
	DefaultTTL = 180 * 24 * time.Hour
)

// Service issues and validates API keys.
type Service struct {
	db   *sql.DB
	keys *repository.APIKeysRepository
	ttl  time.Duration
}

// NewService creates a new API key service. A zero ttl falls back to
// DefaultTTL.
func NewService(db *sql.DB, keys *repository.APIKeysRepository, ttl time.Duration) *Service {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Service{db: db, keys: keys, ttl: ttl}
}

// Issue creates a new API key for the organization and returns the record
// together with the plaintext key, which is shown exactly once. The caller
// must have access to the organization.
func (s *Service) Issue(ctx context.Context, orgID uuid.UUID, authCtx domain.AuthContext, expiresAt *time.Time) (*domain.APIKey, string, error) {
	if err := org.ValidateAccess(authCtx, orgID); err != nil {
		return nil, "", err
	}

	rawKey, err := GenerateKey()
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	expiry := now.Add(s.ttl)
	if expiresAt != nil {
		expiry = *expiresAt
	}

	key := &domain.APIKey{
		ID:        uuid.New(),
		OrgID:     orgID,
		KeyHash:   HashKey(rawKey),
		ExpiresAt: expiry,
		CreatedAt: now,
	}
	if authCtx.HasUserContext() {
		email := authCtx.User().Email
		key.CreatedByEmail = &email
	}

	if err := s.keys.Create(ctx, key); err != nil {
		return nil, "", err
	}
	return key, rawKey, nil
}

// Validate resolves a plaintext API key into a credential AuthContext bound
// to the key's organization.
func (s *Service) Validate(ctx context.Context, rawKey string) (domain.AuthContext, error) {
	if !IsValidKeyFormat(rawKey) {
		return domain.AuthContext{}, domain.ErrAPIKeyNotFound
	}

	key, err := s.keys.GetByHash(ctx, HashKey(rawKey))
	if err != nil {
		return domain.AuthContext{}, err
	}
	if key.IsExpired() {
		return domain.AuthContext{}, domain.ErrAPIKeyExpired
	}

	return domain.NewAPIKeyContext(key.OrgID), nil
}

// List retrieves the organization's API keys. The caller must have access to
// the organization.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, authCtx domain.AuthContext) ([]*domain.APIKey, error) {
	if err := org.ValidateAccess(authCtx, orgID); err != nil {
		return nil, err
	}
	return s.keys.ListByOrgID(ctx, orgID)
}

// Revoke deletes an API key. The caller must have access to the organization;
// a missing key is ErrAPIKeyNotFound.
func (s *Service) Revoke(ctx context.Context, orgID, keyID uuid.UUID, authCtx domain.AuthContext) error {
	if err := org.ValidateAccess(authCtx, orgID); err != nil {
		return err
	}

	deleted, err := s.keys.Delete(ctx, orgID, keyID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrAPIKeyNotFound
	}
	return nil
}

// GenerateKey creates a new random API key.
func GenerateKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return KeyPrefix + hex.EncodeToString(buf), nil
}

// HashKey creates the SHA-256 hash of an API key for storage and lookup.
func HashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// IsValidKeyFormat checks whether a key has the issued format: the prefix
// followed by 64 hex characters.
func IsValidKeyFormat(rawKey string) bool {
	if !strings.HasPrefix(rawKey, KeyPrefix) {
		return false
	}
	hexPart := strings.TrimPrefix(rawKey, KeyPrefix)
	if len(hexPart) != keyHexLen {
		return false
	}
	_, err := hex.DecodeString(hexPart)
	return err == nil
}
