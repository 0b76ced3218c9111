package org

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-orgs/pkg/domain"
)

func TestAddMember_FirstOrganizationForcesPrimary(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	adminID := uuid.New()
	targetID := uuid.New()
	authCtx := userContext(adminID, domain.OrgRoleAdmin, orgID)

	mock.ExpectBegin()
	expectCount(mock, targetID, 0)
	mock.ExpectExec(`INSERT INTO memberships`).
		WithArgs(targetID, orgID, "member", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectClearAndSetPrimary(mock, targetID, orgID, 1)
	mock.ExpectCommit()

	// Requested primary=false is overridden for the first membership.
	m, err := svc.AddMember(context.Background(), orgID, targetID, domain.OrgRoleMember, authCtx, false)
	require.NoError(t, err)
	assert.True(t, m.IsPrimary)
	assert.Equal(t, domain.OrgRoleMember, m.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMember_ExistingMembershipsStayNonPrimary(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	adminID := uuid.New()
	targetID := uuid.New()
	authCtx := userContext(adminID, domain.OrgRoleOwner, orgID)

	mock.ExpectBegin()
	expectCount(mock, targetID, 2)
	mock.ExpectExec(`INSERT INTO memberships`).
		WithArgs(targetID, orgID, "admin", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := svc.AddMember(context.Background(), orgID, targetID, domain.OrgRoleAdmin, authCtx, false)
	require.NoError(t, err)
	assert.False(t, m.IsPrimary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Requesting primary on a later membership reassigns the flag away from the
// user's current primary organization. The new row must be inserted
// non-primary and flipped after the clear step, or the insert would collide
// with the existing primary row under the one-primary unique index.
func TestAddMember_RequestedPrimaryReassigns(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	adminID := uuid.New()
	targetID := uuid.New()
	authCtx := userContext(adminID, domain.OrgRoleAdmin, orgID)

	mock.ExpectBegin()
	expectCount(mock, targetID, 1)
	mock.ExpectExec(`INSERT INTO memberships`).
		WithArgs(targetID, orgID, "admin", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectClearAndSetPrimary(mock, targetID, orgID, 1)
	mock.ExpectCommit()

	m, err := svc.AddMember(context.Background(), orgID, targetID, domain.OrgRoleAdmin, authCtx, true)
	require.NoError(t, err)
	assert.True(t, m.IsPrimary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMember_RequiresAdmin(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	authCtx := userContext(uuid.New(), domain.OrgRoleMember, orgID)

	_, err := svc.AddMember(context.Background(), orgID, uuid.New(), domain.OrgRoleMember, authCtx, false)
	require.ErrorIs(t, err, domain.ErrAdminRequired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMember_InvalidRole(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	authCtx := userContext(uuid.New(), domain.OrgRoleOwner, orgID)

	_, err := svc.AddMember(context.Background(), orgID, uuid.New(), domain.OrgRole("superuser"), authCtx, false)
	require.ErrorIs(t, err, domain.ErrInvalidRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A sole owner removing themselves must be refused and the membership left
// intact.
func TestRemoveMember_SelfRemovalLastOwner(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	ownerID := uuid.New()
	authCtx := userContext(ownerID, domain.OrgRoleOwner, orgID)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM memberships`).
		WithArgs(ownerID, orgID).
		WillReturnRows(membershipRows(domain.NewMembership(ownerID, orgID, domain.OrgRoleOwner, true)))

	// Owners excluding the caller: empty.
	mock.ExpectQuery(`role = 'owner'`).
		WithArgs(orgID, ownerID).
		WillReturnRows(membershipRows())
	mock.ExpectRollback()

	deleted, err := svc.RemoveMember(context.Background(), orgID, ownerID, authCtx)
	require.ErrorIs(t, err, domain.ErrLastOwner)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMember_SelfRemovalWithRemainingOwner(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	ownerID := uuid.New()
	otherOwnerID := uuid.New()
	authCtx := userContext(ownerID, domain.OrgRoleOwner, orgID)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM memberships`).
		WithArgs(ownerID, orgID).
		WillReturnRows(membershipRows(domain.NewMembership(ownerID, orgID, domain.OrgRoleOwner, true)))

	mock.ExpectQuery(`role = 'owner'`).
		WithArgs(orgID, ownerID).
		WillReturnRows(membershipRows(domain.NewMembership(otherOwnerID, orgID, domain.OrgRoleOwner, false)))

	mock.ExpectExec(`DELETE FROM memberships`).
		WithArgs(ownerID, orgID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := svc.RemoveMember(context.Background(), orgID, ownerID, authCtx)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A non-owner removing themselves needs no last-owner check.
func TestRemoveMember_SelfRemovalPlainMember(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	memberID := uuid.New()
	authCtx := userContext(memberID, domain.OrgRoleMember, orgID)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM memberships`).
		WithArgs(memberID, orgID).
		WillReturnRows(membershipRows(domain.NewMembership(memberID, orgID, domain.OrgRoleMember, false)))

	mock.ExpectExec(`DELETE FROM memberships`).
		WithArgs(memberID, orgID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := svc.RemoveMember(context.Background(), orgID, memberID, authCtx)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMember_ThirdPartyRequiresAdmin(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	authCtx := userContext(uuid.New(), domain.OrgRoleMember, orgID)

	_, err := svc.RemoveMember(context.Background(), orgID, uuid.New(), authCtx)
	require.ErrorIs(t, err, domain.ErrAdminRequired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMember_NonexistentReturnsFalse(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	targetID := uuid.New()
	authCtx := userContext(uuid.New(), domain.OrgRoleAdmin, orgID)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM memberships`).
		WithArgs(targetID, orgID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	deleted, err := svc.RemoveMember(context.Background(), orgID, targetID, authCtx)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMemberRole(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	targetID := uuid.New()
	authCtx := userContext(uuid.New(), domain.OrgRoleOwner, orgID)

	mock.ExpectQuery(`FROM memberships`).
		WithArgs(targetID, orgID).
		WillReturnRows(membershipRows(domain.NewMembership(targetID, orgID, domain.OrgRoleMember, false)))

	mock.ExpectExec(`UPDATE memberships SET role`).
		WithArgs(targetID, orgID, "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m, err := svc.UpdateMemberRole(context.Background(), orgID, targetID, domain.OrgRoleAdmin, authCtx)
	require.NoError(t, err)
	assert.Equal(t, domain.OrgRoleAdmin, m.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMemberRole_MembershipMissing(t *testing.T) {
	svc, mock := newMockService(t)
	orgID := uuid.New()
	targetID := uuid.New()
	authCtx := userContext(uuid.New(), domain.OrgRoleAdmin, orgID)

	mock.ExpectQuery(`FROM memberships`).
		WithArgs(targetID, orgID).
		WillReturnRows(membershipRows())

	_, err := svc.UpdateMemberRole(context.Background(), orgID, targetID, domain.OrgRoleAdmin, authCtx)
	require.ErrorIs(t, err, domain.ErrMembershipNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserMembership_EnforcesTenancyBoundary(t *testing.T) {
	svc, mock := newMockService(t)
	orgA := uuid.New()
	orgB := uuid.New()

	// Credential bound to A may not read memberships of B.
	_, err := svc.GetUserMembership(context.Background(), orgB, uuid.New(), domain.NewAPIKeyContext(orgA))
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
