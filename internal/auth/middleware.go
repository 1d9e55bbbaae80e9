package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lectern-app/lectern/internal/platform/httpx"
	"github.com/lectern-app/lectern/internal/shared"
)

// Authenticator verifies bearer tokens and attaches the resulting identity
// to the request context. Requests without an Authorization header pass
// through anonymous; protected routes reject them downstream.
type Authenticator struct {
	Tokens   *TokenManager
	Denylist *Denylist
	Logger   *slog.Logger
}

// Middleware returns the token verification middleware.
func (a Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}

		claims, err := a.Tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		actorID, err := claims.ActorID()
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if a.Denylist != nil {
			if err := a.Denylist.Check(r.Context(), claims.ID); err != nil {
				if !errors.Is(err, shared.ErrTokenRevoked) && a.Logger != nil {
					a.Logger.Error("denylist check", slog.Any("error", err))
				}
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
		}

		identity := shared.Identity{
			ActorID: actorID,
			Email:   claims.Email,
			TokenID: claims.ID,
		}
		if claims.ExpiresAt != nil {
			identity.TokenExpiry = claims.ExpiresAt.Time
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireIdentity rejects anonymous requests. Routes that need a user but
// no particular permission (for example /auth/me) mount this directly.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.IdentityFromContext(r.Context()); !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
