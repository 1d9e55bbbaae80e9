package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/internal/auth"
	"github.com/lectern-app/lectern/internal/shared"
	_ "github.com/lectern-app/lectern/testing"
)

func newDenylist(t *testing.T) (*auth.Denylist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewDenylist(client), mr
}

func TestDenylistRevokeAndCheck(t *testing.T) {
	denylist, _ := newDenylist(t)
	ctx := context.Background()

	require.NoError(t, denylist.Check(ctx, "token-1"))

	err := denylist.Revoke(ctx, "token-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.ErrorIs(t, denylist.Check(ctx, "token-1"), shared.ErrTokenRevoked)

	require.NoError(t, denylist.Check(ctx, "token-2"))
}

func TestDenylistExpiredTokenIsNoop(t *testing.T) {
	denylist, _ := newDenylist(t)
	ctx := context.Background()

	err := denylist.Revoke(ctx, "token-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.NoError(t, denylist.Check(ctx, "token-1"))
}

func TestDenylistEntryExpiresWithToken(t *testing.T) {
	denylist, mr := newDenylist(t)
	ctx := context.Background()

	require.NoError(t, denylist.Revoke(ctx, "token-1", time.Now().Add(time.Minute)))
	require.ErrorIs(t, denylist.Check(ctx, "token-1"), shared.ErrTokenRevoked)

	mr.FastForward(2 * time.Minute)
	require.NoError(t, denylist.Check(ctx, "token-1"))
}
