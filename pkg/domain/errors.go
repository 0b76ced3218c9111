package domain

import "errors"

// Lookup errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMembershipNotFound   = errors.New("user is not a member of organization")
	ErrAPIKeyNotFound       = errors.New("api key not found")
)

// Authorization errors
var (
	ErrPermissionDenied = errors.New("caller does not have access to organization")
	ErrAdminRequired    = errors.New("caller must be an owner or admin to perform this action")
	ErrAPIKeyExpired    = errors.New("api key has expired")
)

// Business-rule errors
var (
	ErrLastOwner   = errors.New("cannot remove the only owner; transfer ownership to another member first")
	ErrInvalidRole = errors.New("invalid organization role")
)

// ErrDirectCreateUnsupported is returned by the direct organization create
// path. Organizations are only created together with their first owner.
var ErrDirectCreateUnsupported = errors.New("organizations must be created through CreateWithOwner")
