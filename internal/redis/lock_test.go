package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// deadClient points at a port nothing listens on, so every command fails
// with a transport error rather than ErrLockNotAcquired.
func deadClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWithSlotLock_RedisUnreachableStillRunsSection(t *testing.T) {
	locker := NewRedisSlotLocker(deadClient(t), time.Second)

	called := false
	err := locker.WithSlotLock(context.Background(), uuid.New(), "1_1_2026", "10:00", func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	require.True(t, called, "critical section must run when the lock backend is down")
}

func TestWithSlotLock_RedisUnreachablePropagatesSectionError(t *testing.T) {
	locker := NewRedisSlotLocker(deadClient(t), time.Second)

	sentinel := errors.New("slot already gone")
	err := locker.WithSlotLock(context.Background(), uuid.New(), "1_1_2026", "10:00", func(ctx context.Context) error {
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	require.NotErrorIs(t, err, ErrLockNotAcquired)
}
