package orgs

import "github.com/go-chi/chi/v5"

// Routes mounts the organization endpoints.
func Routes(r chi.Router, h *Handler) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/mine", h.ListMine)
	r.Get("/{orgID}", h.Get)
	r.Patch("/{orgID}", h.Update)
	r.Put("/{orgID}/primary", h.SetPrimary)
}
