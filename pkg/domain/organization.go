package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenancy root. Organizations do not belong to other
// organizations; every scoped resource hangs off exactly one of them.
type Organization struct {
	ID              uuid.UUID
	Name            string
	Description     string
	ExternalOrgID   *string // identity-provider organization reference, if linked
	ModifiedByEmail *string
	CreatedAt       time.Time
	ModifiedAt      time.Time
}

// NewOrganization creates a new Organization.
func NewOrganization(name, description string) *Organization {
	now := time.Now()
	return &Organization{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
}

// OrganizationWithRole is the read projection of an organization annotated
// with the viewing user's role and primary flag.
type OrganizationWithRole struct {
	ID          uuid.UUID
	Name        string
	Description string
	Role        OrgRole
	IsPrimary   bool
	CreatedAt   time.Time
	ModifiedAt  time.Time
}
