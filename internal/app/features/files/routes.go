package files

import (
	"github.com/dalemusser/stratafiles/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the files endpoints. The resolver's LoadCaller middleware is
// expected to be installed by the caller; routes that mutate or expose
// owner-only metadata additionally require a session. The data endpoint is
// reachable anonymously because public files are world-readable.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller)
		r.Post("/files", h.Upload)
		r.Get("/files", h.Index)
		r.Get("/files/{id}", h.Show)
		r.Put("/files/{id}/publish", h.Publish)
		r.Put("/files/{id}/unpublish", h.Unpublish)
	})

	r.Get("/files/{id}/data", h.Data)
}
