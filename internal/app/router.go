package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lectern-app/lectern/internal/auth"
	"github.com/lectern-app/lectern/internal/authz"
	"github.com/lectern-app/lectern/internal/books"
	"github.com/lectern-app/lectern/internal/observability"
	"github.com/lectern-app/lectern/internal/rbac"
	"github.com/lectern-app/lectern/internal/users"
	"github.com/lectern-app/lectern/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Authenticator auth.Authenticator
	Guard         *authz.Middleware
	AuthHandler   *auth.Handler
	BooksHandler  *books.Handler
	RBACHandler   *rbac.Handler
	UsersHandler  *users.Handler
	JobHandler    *jobs.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Authenticator.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api/v1", func(r chi.Router) {
		if params.BooksHandler != nil {
			params.BooksHandler.MountRoutes(r, params.Guard)
		}
		if params.RBACHandler != nil {
			params.RBACHandler.MountRoutes(r, params.Guard)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r, params.Guard)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.Guard.Require("rbac.manage"))
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
