package authz

import (
	"context"
	"errors"
)

// ErrDenied is the only authorization error the gate produces. It carries
// no detail about which role or permission would have succeeded.
var ErrDenied = errors.New("authz: denied")

// Gate is the facade the rest of the application authorizes through. It
// performs no caching across calls and has no side effects on success.
type Gate struct {
	engine *Engine
}

// NewGate constructs a Gate over the engine.
func NewGate(engine *Engine) *Gate {
	return &Gate{engine: engine}
}

// Allow reports whether the actor holds the permission. Infrastructure
// faults from the underlying store propagate unchanged.
func (g *Gate) Allow(ctx context.Context, actorID int64, permission string) (bool, error) {
	return g.engine.Evaluate(ctx, actorID, permission)
}

// Require returns nil when the actor holds the permission and ErrDenied
// otherwise. Protected operations call this before any state mutation and
// must not proceed on error.
func (g *Gate) Require(ctx context.Context, actorID int64, permission string) error {
	allowed, err := g.engine.Evaluate(ctx, actorID, permission)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrDenied
	}
	return nil
}

// IsDenied reports whether err is an authorization denial as opposed to an
// infrastructure fault.
func IsDenied(err error) bool {
	return errors.Is(err, ErrDenied)
}
