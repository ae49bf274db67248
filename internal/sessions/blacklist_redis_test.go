package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlacklistAccessToken_IsAccessTokenBlacklisted(t *testing.T) {
	m, client := newMiniRedis(t)
	SetBlacklistClient(client)
	t.Cleanup(func() { SetBlacklistClient(nil) })

	ctx := context.Background()
	token := "access-token-1"
	require.NoError(t, BlacklistAccessToken(ctx, token, 2*time.Second))

	ok, err := IsAccessTokenBlacklisted(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = IsAccessTokenBlacklisted(ctx, "access-token-2")
	require.NoError(t, err)
	require.False(t, ok)

	m.FastForward(3 * time.Second)
	ok, err = IsAccessTokenBlacklisted(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlacklist_NoClient_Noop(t *testing.T) {
	SetBlacklistClient(nil)
	ctx := context.Background()
	require.NoError(t, BlacklistAccessToken(ctx, "no-client-token", time.Second))
	ok, err := IsAccessTokenBlacklisted(ctx, "no-client-token")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlacklist_ExpiredTokenIsNotStored(t *testing.T) {
	m, client := newMiniRedis(t)
	SetBlacklistClient(client)
	t.Cleanup(func() { SetBlacklistClient(nil) })

	require.NoError(t, BlacklistAccessToken(context.Background(), "spent", 0))
	require.Empty(t, m.Keys())
}
