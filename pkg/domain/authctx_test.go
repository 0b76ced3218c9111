package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestAuthContext_UserContext(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()
	userID := uuid.New()

	authCtx := NewUserContext(AuthUser{
		ID:    userID,
		Email: "owner@example.com",
		Memberships: []Membership{
			{UserID: userID, OrgID: orgA, Role: OrgRoleOwner, IsPrimary: true},
			{UserID: userID, OrgID: orgB, Role: OrgRoleMember},
		},
	})

	if !authCtx.HasUserContext() {
		t.Fatal("expected user context")
	}
	if authCtx.User().ID != userID {
		t.Errorf("User().ID = %v, want %v", authCtx.User().ID, userID)
	}

	m, ok := authCtx.User().MembershipIn(orgB)
	if !ok {
		t.Fatal("expected membership in orgB")
	}
	if m.Role != OrgRoleMember {
		t.Errorf("Role = %v, want member", m.Role)
	}

	if _, ok := authCtx.User().MembershipIn(uuid.New()); ok {
		t.Error("expected no membership in unrelated org")
	}
}

func TestAuthContext_APIKeyContext(t *testing.T) {
	orgID := uuid.New()
	authCtx := NewAPIKeyContext(orgID)

	if authCtx.HasUserContext() {
		t.Fatal("expected credential context")
	}
	if authCtx.User() != nil {
		t.Error("User() should be nil for credential contexts")
	}
	if authCtx.OrganizationID() != orgID {
		t.Errorf("OrganizationID() = %v, want %v", authCtx.OrganizationID(), orgID)
	}
}
