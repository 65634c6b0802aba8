package locker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testLockKey = "catalog:sync:lock"

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLocker(client, zap.NewNop()), mr
}

func TestAcquire(t *testing.T) {
	locker, _ := newTestLocker(t)

	acquired, err := locker.Acquire(context.Background(), testLockKey, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAcquire_HeldByOtherInstance(t *testing.T) {
	locker1, mr := newTestLocker(t)

	client2 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client2.Close() })
	locker2 := NewRedisLocker(client2, zap.NewNop())

	ctx := context.Background()

	acquired, err := locker1.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = locker2.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err, "contention is not an error")
	assert.False(t, acquired)
}

func TestAcquire_AfterExpiry(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, testLockKey, time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	mr.FastForward(2 * time.Second)

	acquired, err = locker.Acquire(ctx, testLockKey, time.Second)
	require.NoError(t, err)
	assert.True(t, acquired, "expired lock is free again")
}

func TestRelease_AllowsReacquire(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, testLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, locker.Release(ctx, testLockKey))

	acquired, err = locker.Acquire(ctx, testLockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestRelease_NotOwned(t *testing.T) {
	locker, _ := newTestLocker(t)

	assert.NoError(t, locker.Release(context.Background(), "never:acquired"))
}

func TestRelease_DoesNotClobberForeignLock(t *testing.T) {
	locker1, mr := newTestLocker(t)

	client2 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client2.Close() })
	locker2 := NewRedisLocker(client2, zap.NewNop())

	ctx := context.Background()

	acquired, err := locker1.Acquire(ctx, testLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// locker2 never acquired, so its release must not free locker1's hold.
	require.NoError(t, locker2.Release(ctx, testLockKey))

	acquired, err = locker2.Acquire(ctx, testLockKey, time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)
}
