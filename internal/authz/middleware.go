package authz

import (
	"log/slog"
	"net/http"

	"github.com/lectern-app/lectern/internal/platform/httpx"
	"github.com/lectern-app/lectern/internal/shared"
)

// Middleware wires authorization checks into HTTP handler chains.
type Middleware struct {
	Gate   *Gate
	Logger *slog.Logger
}

// Require ensures the current actor holds the permission before the next
// handler runs. Missing identity maps to 401, denial to a generic 403, and
// storage faults to 500; a timed-out or failed check never falls through
// to the handler.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if err := m.Gate.Require(r.Context(), identity.ActorID, permission); err != nil {
				if IsDenied(err) {
					httpx.RespondError(w, httpx.ErrForbidden)
					return
				}
				if m.Logger != nil {
					m.Logger.Error("authz require", slog.String("permission", permission), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
