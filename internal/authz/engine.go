package authz

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// SystemActorID is the reserved identifier of the system actor. It bypasses
// every permission check, including checks for names that were never
// defined. The bypass is a structural rule evaluated before any catalog or
// role lookup, so no data mutation can grant or revoke it.
const SystemActorID int64 = 1

// Decision outcomes recorded on the metrics counter.
const (
	DecisionAllow  = "allow"
	DecisionDeny   = "deny"
	DecisionBypass = "bypass"
)

// DecisionRecorder receives the outcome of each evaluation. Implementations
// must be safe for concurrent use. A nil recorder disables recording.
type DecisionRecorder interface {
	AuthzDecision(outcome string)
}

type nameSet map[string]struct{}

// Engine evaluates authorization checks. It holds an immutable snapshot of
// the defined permission names and a live accessor for role membership:
// names added after the last Initialize are not recognized until the next
// one, while role and permission assignments are always read fresh per
// check.
//
// The engine has two externally meaningful states. Before the first
// successful Initialize every check denies except the system-actor bypass;
// afterwards checks resolve against the snapshot. Re-initializing fully
// replaces the snapshot, it never merges.
type Engine struct {
	catalog     PermissionSource
	assignments AssignmentSource
	logger      *slog.Logger
	metrics     DecisionRecorder

	snapshot atomic.Pointer[nameSet]
	reload   sync.Mutex
}

// NewEngine constructs an Engine. The snapshot starts empty; call
// Initialize before serving traffic. metrics may be nil.
func NewEngine(catalog PermissionSource, assignments AssignmentSource, logger *slog.Logger, metrics DecisionRecorder) *Engine {
	return &Engine{
		catalog:     catalog,
		assignments: assignments,
		logger:      logger,
		metrics:     metrics,
	}
}

// Initialize snapshots the permission catalog and atomically publishes it.
// Safe to call repeatedly, including after administrative catalog changes.
// Reloads are serialized, and every call performs its own catalog read
// after acquiring the lock: a call issued after a catalog commit always
// reads post-commit data, even if an earlier reload was still in flight
// when it arrived. Readers always see either the previous complete
// snapshot or the new one, never a partial set.
//
// An unreachable or not-yet-provisioned catalog is not fatal: the engine
// falls back to an empty snapshot (every non-system check denies) so that
// early-boot and pre-migration calls cannot crash the process.
func (e *Engine) Initialize(ctx context.Context) error {
	e.reload.Lock()
	defer e.reload.Unlock()

	names, err := e.catalog.ListNames(ctx)
	if err != nil {
		empty := make(nameSet)
		e.snapshot.Store(&empty)
		if e.logger != nil {
			e.logger.Warn("authz: permission catalog unavailable, all non-system checks will deny", slog.Any("error", err))
		}
		return nil
	}
	set := make(nameSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	e.snapshot.Store(&set)
	if e.logger != nil {
		e.logger.Info("authz: permission catalog loaded", slog.Int("permissions", len(set)))
	}
	return nil
}

// Evaluate reports whether the actor holds the permission.
//
// The system actor is allowed unconditionally before any lookup. A name
// absent from the snapshot denies. Otherwise the decision delegates to the
// live role-assignment data. Domain outcomes (unknown name, unknown actor,
// empty catalog) are booleans, never errors; only infrastructure faults
// from the underlying store propagate, and callers must treat those as
// denial.
func (e *Engine) Evaluate(ctx context.Context, actorID int64, permission string) (bool, error) {
	if actorID == SystemActorID {
		e.record(DecisionBypass)
		return true, nil
	}
	if !e.registered(permission) {
		e.record(DecisionDeny)
		return false, nil
	}
	held, err := e.assignments.ActorHasPermission(ctx, actorID, permission)
	if err != nil {
		return false, err
	}
	if held {
		e.record(DecisionAllow)
	} else {
		e.record(DecisionDeny)
	}
	return held, nil
}

// Registered reports whether the permission name is part of the current
// catalog snapshot.
func (e *Engine) Registered(permission string) bool {
	return e.registered(permission)
}

func (e *Engine) registered(permission string) bool {
	set := e.snapshot.Load()
	if set == nil {
		return false
	}
	_, ok := (*set)[permission]
	return ok
}

func (e *Engine) record(outcome string) {
	if e.metrics != nil {
		e.metrics.AuthzDecision(outcome)
	}
}
