package domain

import "github.com/google/uuid"

// AuthUser is an authenticated user together with the membership list the
// caller-identity layer materialized for it. The core never re-derives this
// list mid-operation.
type AuthUser struct {
	ID          uuid.UUID
	Email       string
	Memberships []Membership
}

// MembershipIn returns the user's membership in the given organization.
func (u *AuthUser) MembershipIn(orgID uuid.UUID) (*Membership, bool) {
	for i := range u.Memberships {
		if u.Memberships[i].OrgID == orgID {
			return &u.Memberships[i], true
		}
	}
	return nil, false
}

// AuthContext identifies the caller of a core operation. It is one of two
// variants: a user context carrying the user's materialized memberships, or
// an API-key credential context bound to exactly one organization. Credential
// contexts can never hold admin rights.
type AuthContext struct {
	user  *AuthUser
	orgID uuid.UUID
}

// NewUserContext creates an AuthContext for an authenticated user.
func NewUserContext(user AuthUser) AuthContext {
	return AuthContext{user: &user}
}

// NewAPIKeyContext creates an AuthContext for an API-key credential bound to
// a single organization.
func NewAPIKeyContext(orgID uuid.UUID) AuthContext {
	return AuthContext{orgID: orgID}
}

// HasUserContext reports whether the caller is an authenticated user rather
// than a scoped credential.
func (a AuthContext) HasUserContext() bool {
	return a.user != nil
}

// User returns the authenticated user, or nil for credential contexts.
func (a AuthContext) User() *AuthUser {
	return a.user
}

// OrganizationID returns the organization a credential context is bound to.
// It is uuid.Nil for user contexts.
func (a AuthContext) OrganizationID() uuid.UUID {
	return a.orgID
}
