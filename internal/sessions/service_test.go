package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateValidateDelete(t *testing.T) {
	svc := NewService(NewMemoryRepository(), time.Hour)
	ctx := context.Background()

	r, err := svc.CreateSession(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, r, 64)

	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "user-1", sess.UserID)
	require.NotEqual(t, r, sess.TokenHash)

	require.NoError(t, svc.DeleteRefresh(ctx, r))
	sess, err = svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestValidateExpired(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, time.Minute)
	ctx := context.Background()
	r, err := svc.CreateSession(ctx, "user-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess)
	require.Empty(t, repo.items)
}

func TestRotate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), time.Hour)
	ctx := context.Background()
	r, err := svc.CreateSession(ctx, "user-1")
	require.NoError(t, err)

	next, sess, err := svc.Rotate(ctx, r)
	require.NoError(t, err)
	require.NotEmpty(t, next)
	require.NotEqual(t, r, next)
	require.Equal(t, "user-1", sess.UserID)

	// the old token is spent
	old, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, old)

	again, sess, err := svc.Rotate(ctx, r)
	require.NoError(t, err)
	require.Empty(t, again)
	require.Nil(t, sess)

	live, err := svc.ValidateRefresh(ctx, next)
	require.NoError(t, err)
	require.NotNil(t, live)
}
