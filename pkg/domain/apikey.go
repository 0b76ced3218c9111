package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a scoped, non-administrative credential bound to exactly one
// organization. Only the SHA-256 hash of the key material is stored.
type APIKey struct {
	ID             uuid.UUID
	OrgID          uuid.UUID
	KeyHash        string
	CreatedByEmail *string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// IsExpired returns true if the key has passed its expiration date.
func (k *APIKey) IsExpired() bool {
	return time.Now().After(k.ExpiresAt)
}
