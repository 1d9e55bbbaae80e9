package rbac

import (
	"github.com/go-chi/chi/v5"

	"github.com/lectern-app/lectern/internal/authz"
)

func (h *Handler) MountRoutes(r chi.Router, guard *authz.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Require("rbac.manage"))

		r.Get("/roles", h.ListRoles)
		r.Post("/roles", h.CreateRole)
		r.Get("/roles/{id}", h.ShowRole)
		r.Patch("/roles/{id}", h.UpdateRole)
		r.Delete("/roles/{id}", h.DeleteRole)
		r.Put("/roles/{id}/permissions", h.SetRolePermissions)

		r.Get("/permissions", h.ListPermissions)
		r.Post("/permissions", h.CreatePermission)
		r.Delete("/permissions/{id}", h.DeletePermission)

		r.Post("/users/{id}/roles", h.AssignRole)
		r.Delete("/users/{id}/roles/{roleID}", h.RemoveRole)
	})
}
