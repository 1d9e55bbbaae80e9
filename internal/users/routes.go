package users

import (
	"github.com/go-chi/chi/v5"

	"github.com/lectern-app/lectern/internal/authz"
)

func (h *Handler) MountRoutes(r chi.Router, guard *authz.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Require("rbac.manage"))
		r.Get("/users", h.List)
		r.Get("/users/{id}", h.Show)
		r.Patch("/users/{id}/active", h.SetActive)
		r.Delete("/users/{id}", h.Delete)
	})
}
