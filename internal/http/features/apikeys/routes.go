package apikeys

import "github.com/go-chi/chi/v5"

// Routes mounts the API key endpoints under /orgs/{orgID}/api-keys.
func Routes(r chi.Router, h *Handler) {
	r.Get("/", h.List)
	r.Post("/", h.Issue)
	r.Delete("/{keyID}", h.Revoke)
}
