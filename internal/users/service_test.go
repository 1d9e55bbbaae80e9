package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/internal/audit"
	"github.com/lectern-app/lectern/internal/shared"
	"github.com/lectern-app/lectern/internal/users"
	_ "github.com/lectern-app/lectern/testing"
)

type memoryRepo struct {
	items map[int64]users.UserDetail
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[int64]users.UserDetail{}}
}

func (r *memoryRepo) add(id int64, email string, roles ...string) {
	r.items[id] = users.UserDetail{
		User: users.User{
			ID: id, Email: email, Name: email, IsActive: true,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		},
		Roles: roles,
	}
}

func (r *memoryRepo) List(_ context.Context, limit, offset int) ([]users.User, int, error) {
	var out []users.User
	for _, d := range r.items {
		out = append(out, d.User)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*users.UserDetail, error) {
	d, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &d, nil
}

func (r *memoryRepo) SetActive(_ context.Context, id int64, active bool) error {
	d, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.IsActive = active
	r.items[id] = d
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memoryAudit struct {
	entries []audit.Entry
}

func (a *memoryAudit) Record(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func TestGetUserWithRoles(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(7, "ana@example.com", "editor", "reader")
	svc := users.NewService(repo, nil, nil)

	detail, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []string{"editor", "reader"}, detail.Roles)

	_, err = svc.Get(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSystemActorIsImmutable(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(1, "system@lectern.local")
	sink := &memoryAudit{}
	svc := users.NewService(repo, sink, nil)

	err := svc.Delete(context.Background(), 1, 5)
	require.ErrorIs(t, err, shared.ErrSystemActorImmutable)

	err = svc.SetActive(context.Background(), 1, false, 5)
	require.ErrorIs(t, err, shared.ErrSystemActorImmutable)

	require.Contains(t, repo.items, int64(1))
	require.True(t, repo.items[1].IsActive)
	require.Empty(t, sink.entries)
}

func TestDeleteUser(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(7, "ana@example.com")
	sink := &memoryAudit{}
	svc := users.NewService(repo, sink, nil)

	require.NoError(t, svc.Delete(context.Background(), 7, 5))
	require.NotContains(t, repo.items, int64(7))
	require.Len(t, sink.entries, 1)
	require.Equal(t, "user.delete", sink.entries[0].Action)

	require.ErrorIs(t, svc.Delete(context.Background(), 7, 5), shared.ErrNotFound)
}

func TestDeactivateUser(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(7, "ana@example.com")
	svc := users.NewService(repo, nil, nil)

	require.NoError(t, svc.SetActive(context.Background(), 7, false, 5))
	require.False(t, repo.items[7].IsActive)
}
