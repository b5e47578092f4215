package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxnow/fxnow/internal/apperrors"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestAcquire_AdmitsUpToLimit(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisSlidingWindow(client, "test", Config{
		MaxCalls: 5,
		Window:   time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		waited, err := limiter.Acquire(ctx)
		require.NoError(t, err, "call %d should be admitted", i+1)
		assert.Zero(t, waited)
	}

	_, err := limiter.Acquire(ctx)
	require.Error(t, err, "6th call should be denied")
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)

	var rle *apperrors.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, int64(5), rle.Count)
	assert.Equal(t, int64(5), rle.Limit)
	assert.Greater(t, rle.RequiredWait, time.Duration(0))
}

func TestAcquire_CapacityRestoredAfterWindow(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisSlidingWindow(client, "test", Config{
		MaxCalls: 2,
		Window:   300 * time.Millisecond,
	})
	ctx := context.Background()

	_, err := limiter.Acquire(ctx)
	require.NoError(t, err)
	_, err = limiter.Acquire(ctx)
	require.NoError(t, err)
	_, err = limiter.Acquire(ctx)
	require.ErrorIs(t, err, apperrors.ErrRateLimited)

	time.Sleep(350 * time.Millisecond)

	_, err = limiter.Acquire(ctx)
	assert.NoError(t, err, "markers past the window must stop counting")
}

func TestAcquire_BlockingWaitsForCapacity(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisSlidingWindow(client, "test", Config{
		MaxCalls: 1,
		Window:   200 * time.Millisecond,
		MaxWait:  2 * time.Second,
		Block:    true,
	})
	ctx := context.Background()

	_, err := limiter.Acquire(ctx)
	require.NoError(t, err)

	waited, err := limiter.Acquire(ctx)
	require.NoError(t, err, "blocking policy should wait out the window")
	assert.Greater(t, waited, time.Duration(0))
	assert.Less(t, waited, 2*time.Second)
}

func TestAcquire_BlockingRespectsMaxWait(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisSlidingWindow(client, "test", Config{
		MaxCalls: 1,
		Window:   time.Hour,
		MaxWait:  50 * time.Millisecond,
		Block:    true,
	})
	ctx := context.Background()

	_, err := limiter.Acquire(ctx)
	require.NoError(t, err)

	_, err = limiter.Acquire(ctx)
	assert.ErrorIs(t, err, apperrors.ErrRateLimited, "wait beyond MaxWait must fail instead of blocking")
}

func TestAcquire_ContextCancelInterruptsWait(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisSlidingWindow(client, "test", Config{
		MaxCalls: 1,
		Window:   time.Hour,
		MaxWait:  time.Hour,
		Block:    true,
	})

	_, err := limiter.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquire_MinIntervalSpacesCalls(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisSlidingWindow(client, "test", Config{
		MaxCalls:    10,
		Window:      time.Minute,
		MinInterval: 150 * time.Millisecond,
	})
	ctx := context.Background()

	_, err := limiter.Acquire(ctx)
	require.NoError(t, err)

	start := time.Now()
	waited, err := limiter.Acquire(ctx)
	require.NoError(t, err)
	assert.Greater(t, waited, time.Duration(0), "second call should be delayed by the minimum interval")
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestCurrentCountAndHasCapacity(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisSlidingWindow(client, "test", Config{
		MaxCalls: 2,
		Window:   time.Minute,
	})
	ctx := context.Background()

	assert.Equal(t, int64(2), limiter.Limit())

	count, err := limiter.CurrentCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	ok, err := limiter.HasCapacity(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = limiter.Acquire(ctx)
	require.NoError(t, err)
	_, err = limiter.Acquire(ctx)
	require.NoError(t, err)

	count, err = limiter.CurrentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ok, err = limiter.HasCapacity(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "full window has no capacity")

	// Inspection must not consume permits.
	count, err = limiter.CurrentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLimiterStateIsSharedAcrossInstances(t *testing.T) {
	client := setupTestRedis(t)
	cfg := Config{MaxCalls: 2, Window: time.Minute}
	a := NewRedisSlidingWindow(client, "test", cfg)
	b := NewRedisSlidingWindow(client, "test", cfg)
	ctx := context.Background()

	_, err := a.Acquire(ctx)
	require.NoError(t, err)
	_, err = b.Acquire(ctx)
	require.NoError(t, err)

	_, err = a.Acquire(ctx)
	assert.ErrorIs(t, err, apperrors.ErrRateLimited, "instances share one window")
}
