package products

import "github.com/go-chi/chi/v5"

// MountRoutes registers the product endpoints. extra is mounted under
// /{id} for product scoped sub-resources such as the history log.
func (h *Handler) MountRoutes(r chi.Router, extra ...func(chi.Router)) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Show)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Patch("/stock", h.UpdateStock)
		r.Put("/categories/{categoryID}", h.AssociateCategory)
		for _, mount := range extra {
			mount(r)
		}
	})
}
