// Package org implements the organization membership core: access
// validation, the single-primary-organization invariant, membership
// lifecycle, ownership bootstrapping, and the read-only query surface.
//
// Every mutating operation validates the caller first and runs its writes
// inside a single transaction, so concurrent callers never observe a user
// with zero or more than one primary membership.
package org

import (
	"database/sql"

	"github.com/tendant/simple-orgs/pkg/repository"
)

// Service is the organization membership core.
type Service struct {
	db          *sql.DB
	orgs        *repository.OrganizationsRepository
	memberships *repository.MembershipsRepository
}

// NewService creates a new organization service.
func NewService(db *sql.DB, orgs *repository.OrganizationsRepository, memberships *repository.MembershipsRepository) *Service {
	return &Service{
		db:          db,
		orgs:        orgs,
		memberships: memberships,
	}
}
