package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-orgs/internal/httputil"
	"github.com/tendant/simple-orgs/pkg/domain"
)

// WriteError maps the core error taxonomy onto HTTP responses. Internal
// details never leak; unknown errors are logged and surfaced as 500.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrOrganizationNotFound),
		errors.Is(err, domain.ErrMembershipNotFound),
		errors.Is(err, domain.ErrAPIKeyNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		httputil.Error(w, http.StatusForbidden, "you do not have access to this organization")
	case errors.Is(err, domain.ErrAdminRequired):
		httputil.Error(w, http.StatusForbidden, "you must be an admin or owner to perform this action")
	case errors.Is(err, domain.ErrLastOwner),
		errors.Is(err, domain.ErrInvalidRole):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAPIKeyExpired):
		httputil.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrDirectCreateUnsupported):
		httputil.Error(w, http.StatusNotImplemented, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
