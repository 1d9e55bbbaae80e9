package books

import (
	"github.com/go-chi/chi/v5"

	"github.com/lectern-app/lectern/internal/authz"
)

func (h *Handler) MountRoutes(r chi.Router, guard *authz.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.Require("books.view"))
		r.Get("/books", h.List)
		r.Get("/books/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.Require("books.create"))
		r.Post("/books", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.Require("books.update"))
		r.Patch("/books/{id}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.Require("books.delete"))
		r.Delete("/books/{id}", h.Delete)
	})
}
