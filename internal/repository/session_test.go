package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewSessionRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 42, "refresh-1", time.Hour))
	assert.True(t, mr.Exists(SessionKeyPrefix+"42"))

	tok, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", tok)

	require.NoError(t, repo.Delete(ctx, 42))
	_, err = repo.Get(ctx, 42)
	assert.ErrorIs(t, err, errs.ErrSessionExpired)
}

func TestSessionRepository_Expires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewSessionRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 1, "tok", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrSessionExpired)
}

func TestNoopLocker(t *testing.T) {
	l := NewNoopLocker()
	unlock, err := l.TryLock(context.Background())
	require.NoError(t, err)
	unlock()
	assert.NoError(t, l.Close())
}
