package authz_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/internal/authz"
	_ "github.com/lectern-app/lectern/testing"
)

// memoryCatalog serves permission names from memory and can simulate an
// unreachable store.
type memoryCatalog struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (c *memoryCatalog) ListNames(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]string(nil), c.names...), nil
}

func (c *memoryCatalog) set(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = names
	c.err = nil
}

// memoryAssignments maps actorID -> role -> permissions, mirroring the
// user_roles/role_permissions join the real accessor queries.
type memoryAssignments struct {
	mu        sync.Mutex
	roles     map[string][]string
	actorRole map[int64][]string
	err       error
}

func newMemoryAssignments() *memoryAssignments {
	return &memoryAssignments{
		roles:     make(map[string][]string),
		actorRole: make(map[int64][]string),
	}
}

func (a *memoryAssignments) grantRole(role string, perms ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roles[role] = perms
}

func (a *memoryAssignments) assign(actorID int64, role string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actorRole[actorID] = append(a.actorRole[actorID], role)
}

func (a *memoryAssignments) revoke(actorID int64, role string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.actorRole[actorID][:0]
	for _, r := range a.actorRole[actorID] {
		if r != role {
			kept = append(kept, r)
		}
	}
	a.actorRole[actorID] = kept
}

func (a *memoryAssignments) ActorHasPermission(ctx context.Context, actorID int64, permission string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return false, a.err
	}
	for _, role := range a.actorRole[actorID] {
		for _, perm := range a.roles[role] {
			if perm == permission {
				return true, nil
			}
		}
	}
	return false, nil
}

// gatedCatalog snapshots its names and then blocks the first read until
// released, so tests can interleave a catalog change with an in-flight
// reload.
type gatedCatalog struct {
	memoryCatalog
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (c *gatedCatalog) ListNames(ctx context.Context) ([]string, error) {
	names, err := c.memoryCatalog.ListNames(ctx)
	var gated bool
	c.once.Do(func() { gated = true })
	if gated {
		close(c.started)
		<-c.release
	}
	return names, err
}

func newEngine(t *testing.T, catalog *memoryCatalog, assignments *memoryAssignments) *authz.Engine {
	t.Helper()
	engine := authz.NewEngine(catalog, assignments, nil, nil)
	require.NoError(t, engine.Initialize(context.Background()))
	return engine
}

func TestSystemActorBypassesEverything(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.view"}}
	engine := newEngine(t, catalog, newMemoryAssignments())

	for _, perm := range []string{"books.view", "books.delete", "never.defined", ""} {
		allowed, err := engine.Evaluate(context.Background(), authz.SystemActorID, perm)
		require.NoError(t, err)
		require.True(t, allowed, "system actor must be allowed for %q", perm)
	}
}

func TestUnregisteredPermissionDenies(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.view"}}
	assignments := newMemoryAssignments()
	assignments.grantRole("editor", "books.publish")
	assignments.assign(2, "editor")
	engine := newEngine(t, catalog, assignments)

	// books.publish is attached to the role but absent from the catalog
	// snapshot, so the check short-circuits to deny without a lookup.
	allowed, err := engine.Evaluate(context.Background(), 2, "books.publish")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestRoleDerivedPermission(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.create", "books.delete"}}
	assignments := newMemoryAssignments()
	assignments.grantRole("editor", "books.create")
	assignments.assign(7, "editor")
	engine := newEngine(t, catalog, assignments)
	ctx := context.Background()

	allowed, err := engine.Evaluate(ctx, 7, "books.create")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = engine.Evaluate(ctx, 7, "books.delete")
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = engine.Evaluate(ctx, authz.SystemActorID, "books.delete")
	require.NoError(t, err)
	require.True(t, allowed)

	// Actor 99 has no roles at all: ordinary denial, not an error.
	allowed, err = engine.Evaluate(ctx, 99, "books.create")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestDenialIsPerActor(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.delete"}}
	assignments := newMemoryAssignments()
	assignments.grantRole("admin", "books.delete")
	assignments.assign(3, "admin")
	engine := newEngine(t, catalog, assignments)

	allowed, err := engine.Evaluate(context.Background(), 4, "books.delete")
	require.NoError(t, err)
	require.False(t, allowed, "one actor holding a permission must not leak to another")
}

func TestUnionAcrossRoles(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.create"}}
	assignments := newMemoryAssignments()
	assignments.grantRole("viewer")
	assignments.grantRole("editor", "books.create")
	assignments.assign(5, "viewer")
	assignments.assign(5, "editor")
	engine := newEngine(t, catalog, assignments)

	allowed, err := engine.Evaluate(context.Background(), 5, "books.create")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRevocationVisibleOnNextCall(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.create", "books.delete"}}
	assignments := newMemoryAssignments()
	assignments.grantRole("editor", "books.create")
	assignments.assign(7, "editor")
	engine := newEngine(t, catalog, assignments)
	ctx := context.Background()

	allowed, err := engine.Evaluate(ctx, 7, "books.create")
	require.NoError(t, err)
	require.True(t, allowed)

	// Role membership is read live per check, so a revocation takes
	// effect on the very next evaluation without re-initializing.
	assignments.revoke(7, "editor")
	allowed, err = engine.Evaluate(ctx, 7, "books.create")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestEmptyCatalog(t *testing.T) {
	engine := newEngine(t, &memoryCatalog{}, newMemoryAssignments())
	ctx := context.Background()

	allowed, err := engine.Evaluate(ctx, 2, "anything")
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = engine.Evaluate(ctx, authz.SystemActorID, "anything")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestUninitializedEngineDenies(t *testing.T) {
	engine := authz.NewEngine(&memoryCatalog{names: []string{"books.view"}}, newMemoryAssignments(), nil, nil)
	ctx := context.Background()

	allowed, err := engine.Evaluate(ctx, 2, "books.view")
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = engine.Evaluate(ctx, authz.SystemActorID, "books.view")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestInitializeIsIdempotent(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.view", "books.create"}}
	assignments := newMemoryAssignments()
	assignments.grantRole("editor", "books.create")
	assignments.assign(7, "editor")
	engine := newEngine(t, catalog, assignments)
	ctx := context.Background()

	type check struct {
		actor int64
		perm  string
	}
	checks := []check{
		{authz.SystemActorID, "books.view"},
		{7, "books.create"},
		{7, "books.view"},
		{9, "books.create"},
		{7, "never.defined"},
	}
	before := make([]bool, len(checks))
	for i, c := range checks {
		allowed, err := engine.Evaluate(ctx, c.actor, c.perm)
		require.NoError(t, err)
		before[i] = allowed
	}

	require.NoError(t, engine.Initialize(ctx))

	for i, c := range checks {
		allowed, err := engine.Evaluate(ctx, c.actor, c.perm)
		require.NoError(t, err)
		require.Equal(t, before[i], allowed, "check %d changed after re-initialize", i)
	}
}

func TestReinitializeReplacesSnapshot(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.view", "books.delete"}}
	assignments := newMemoryAssignments()
	assignments.grantRole("editor", "books.view", "reports.view")
	assignments.assign(7, "editor")
	engine := newEngine(t, catalog, assignments)
	ctx := context.Background()

	require.True(t, engine.Registered("books.delete"))
	require.False(t, engine.Registered("reports.view"))

	// Administrative change: books.delete removed, reports.view added.
	catalog.set("books.view", "reports.view")
	require.NoError(t, engine.Initialize(ctx))

	// Full replacement: the removed name no longer resolves even though
	// nothing else changed, and the new name is recognized immediately.
	require.False(t, engine.Registered("books.delete"))
	allowed, err := engine.Evaluate(ctx, 7, "reports.view")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestCatalogUnavailableFallsBackToEmptySnapshot(t *testing.T) {
	catalog := &memoryCatalog{err: errors.New("connection refused")}
	assignments := newMemoryAssignments()
	assignments.grantRole("editor", "books.view")
	assignments.assign(7, "editor")

	engine := authz.NewEngine(catalog, assignments, nil, nil)
	require.NoError(t, engine.Initialize(context.Background()), "catalog outage must not fail initialization")

	allowed, err := engine.Evaluate(context.Background(), 7, "books.view")
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = engine.Evaluate(context.Background(), authz.SystemActorID, "books.view")
	require.NoError(t, err)
	require.True(t, allowed)

	// Once the store recovers, re-initializing restores normal service.
	catalog.set("books.view")
	require.NoError(t, engine.Initialize(context.Background()))
	allowed, err = engine.Evaluate(context.Background(), 7, "books.view")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestStoreFaultPropagates(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.view"}}
	assignments := newMemoryAssignments()
	assignments.err = errors.New("connection reset")
	engine := newEngine(t, catalog, assignments)

	_, err := engine.Evaluate(context.Background(), 2, "books.view")
	require.Error(t, err)

	// The bypass and the unknown-name short circuit never touch the
	// store, so they keep working through an outage.
	allowed, err := engine.Evaluate(context.Background(), authz.SystemActorID, "books.view")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = engine.Evaluate(context.Background(), 2, "never.defined")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestReloadAfterCatalogWriteSeesNewName(t *testing.T) {
	catalog := &gatedCatalog{
		memoryCatalog: memoryCatalog{names: []string{"books.view"}},
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	engine := authz.NewEngine(catalog, newMemoryAssignments(), nil, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- engine.Initialize(ctx) }()
	<-catalog.started

	// A name is committed while the first reload is still in flight, and
	// a fresh reload is requested afterwards. The second reload must read
	// the store again instead of riding along with the stale first read,
	// otherwise the committed name never enters the snapshot.
	catalog.set("books.view", "books.create")
	second := make(chan error, 1)
	go func() { second <- engine.Initialize(ctx) }()

	close(catalog.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	require.True(t, engine.Registered("books.create"))
	require.True(t, engine.Registered("books.view"))
}

func TestConcurrentEvaluateDuringReload(t *testing.T) {
	catalog := &memoryCatalog{names: []string{"books.view"}}
	assignments := newMemoryAssignments()
	assignments.grantRole("viewer", "books.view")
	assignments.assign(2, "viewer")
	engine := newEngine(t, catalog, assignments)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				allowed, err := engine.Evaluate(ctx, 2, "books.view")
				require.NoError(t, err)
				require.True(t, allowed)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				require.NoError(t, engine.Initialize(ctx))
			}
		}()
	}
	wg.Wait()
}
