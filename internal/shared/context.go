package shared

import (
	"context"
	"time"
)

// Identity carries the authenticated actor through the request context.
// It is set by the auth middleware after token verification and consumed
// by authorization checks and handlers. The zero value means anonymous.
type Identity struct {
	ActorID     int64
	Email       string
	TokenID     string
	TokenExpiry time.Time
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. The second
// return value reports whether an identity was present at all.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
