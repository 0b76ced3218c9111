package members

import "github.com/go-chi/chi/v5"

// Routes mounts the membership endpoints under /orgs/{orgID}/members.
func Routes(r chi.Router, h *Handler) {
	r.Get("/", h.List)
	r.Post("/", h.Add)
	r.Get("/{userID}", h.Get)
	r.Patch("/{userID}", h.UpdateRole)
	r.Delete("/{userID}", h.Remove)
}
