package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrgRole defines the role of a user within an organization.
type OrgRole string

const (
	// OrgRoleOwner has full control over the organization.
	OrgRoleOwner OrgRole = "owner"
	// OrgRoleAdmin can manage members and all resources.
	OrgRoleAdmin OrgRole = "admin"
	// OrgRoleMember can use the organization's resources.
	OrgRoleMember OrgRole = "member"
)

// ValidOrgRoles returns all valid organization roles.
func ValidOrgRoles() []OrgRole {
	return []OrgRole{OrgRoleOwner, OrgRoleAdmin, OrgRoleMember}
}

// IsValidOrgRole checks if the given role is a valid organization role.
func IsValidOrgRole(role string) bool {
	for _, r := range ValidOrgRoles() {
		if string(r) == role {
			return true
		}
	}
	return false
}

// Rank returns the display precedence of a role: owner > admin > member.
// Unknown roles rank below all valid ones.
func (r OrgRole) Rank() int {
	switch r {
	case OrgRoleOwner:
		return 3
	case OrgRoleAdmin:
		return 2
	case OrgRoleMember:
		return 1
	default:
		return 0
	}
}

// Membership is the (user, organization) relation. Pairs are unique; at most
// one membership per user carries the primary flag.
type Membership struct {
	UserID    uuid.UUID
	OrgID     uuid.UUID
	Role      OrgRole
	IsPrimary bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMembership creates a new Membership.
func NewMembership(userID, orgID uuid.UUID, role OrgRole, isPrimary bool) *Membership {
	now := time.Now()
	return &Membership{
		UserID:    userID,
		OrgID:     orgID,
		Role:      role,
		IsPrimary: isPrimary,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwner returns true if the membership role is owner.
func (m *Membership) IsOwner() bool {
	return m.Role == OrgRoleOwner
}

// IsAdmin returns true if the membership role is admin or owner.
func (m *Membership) IsAdmin() bool {
	return m.Role == OrgRoleAdmin || m.Role == OrgRoleOwner
}
