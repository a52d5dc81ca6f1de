package categories

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/tree", h.Tree)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/parent", h.Reparent)
	r.Delete("/{id}", h.Delete)
}
