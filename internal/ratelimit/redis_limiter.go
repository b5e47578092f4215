// Package ratelimit provides distributed admission control for upstream API
// calls. State lives in Redis so the limit holds across all running instances.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fxnow/fxnow/internal/apperrors"
)

// Config tunes the sliding-window limiter.
type Config struct {
	MaxCalls    int           // N: admissions allowed per trailing window
	Window      time.Duration // W: trailing window size
	MaxWait     time.Duration // upper bound on blocking; zero means never block
	MinInterval time.Duration // optional minimum delay between any two calls, 0 disables
	Block       bool          // block until capacity frees up instead of failing fast
}

// DefaultConfig mirrors the upstream quota: 300 calls per 30 minutes.
func DefaultConfig() Config {
	return Config{
		MaxCalls: 300,
		Window:   30 * time.Minute,
		MaxWait:  5 * time.Minute,
	}
}

// RedisSlidingWindow admits upstream calls using a Redis sorted set of call
// markers scored by admission time. The purge-check-insert sequence is not
// atomic as a whole; ZADD is, which keeps the limit soft under races (slight
// over-admission possible, under-admission not).
type RedisSlidingWindow struct {
	client      *redis.Client
	key         string
	lastCallKey string
	cfg         Config
}

// NewRedisSlidingWindow creates a limiter on the given shared Redis client.
// keyPrefix namespaces the limiter state, e.g. "fxnow:bok_api".
func NewRedisSlidingWindow(client *redis.Client, keyPrefix string, cfg Config) *RedisSlidingWindow {
	return &RedisSlidingWindow{
		client:      client,
		key:         keyPrefix + ":rate_limit",
		lastCallKey: keyPrefix + ":last_call",
		cfg:         cfg,
	}
}

// Acquire admits one upstream call. Under the blocking policy it sleeps until
// the oldest marker exits the window (bounded by MaxWait); under fail-fast it
// returns *apperrors.RateLimitError immediately. The returned duration is the
// total time the caller was blocked, so callers can tell which policy path ran.
func (l *RedisSlidingWindow) Acquire(ctx context.Context) (time.Duration, error) {
	var waited time.Duration

	for {
		count, err := l.purgeAndCount(ctx)
		if err != nil {
			return waited, err
		}

		if count < int64(l.cfg.MaxCalls) {
			break
		}

		wait, err := l.timeUntilCapacity(ctx)
		if err != nil {
			return waited, err
		}

		if !l.cfg.Block || waited+wait > l.cfg.MaxWait {
			return waited, &apperrors.RateLimitError{
				Count:        count,
				Limit:        int64(l.cfg.MaxCalls),
				RequiredWait: wait,
			}
		}

		slog.Debug("rate limiter window full, waiting",
			slog.Int64("count", count),
			slog.Duration("wait", wait),
		)
		if err := sleepCtx(ctx, wait); err != nil {
			return waited, err
		}
		waited += wait
	}

	if l.cfg.MinInterval > 0 {
		delay, err := l.minIntervalDelay(ctx)
		if err != nil {
			return waited, err
		}
		if delay > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				return waited, err
			}
			waited += delay
		}
	}

	if err := l.record(ctx); err != nil {
		return waited, err
	}
	return waited, nil
}

// CurrentCount reports how many calls sit in the trailing window right now,
// across all instances.
func (l *RedisSlidingWindow) CurrentCount(ctx context.Context) (int64, error) {
	return l.purgeAndCount(ctx)
}

// Limit reports the configured window capacity.
func (l *RedisSlidingWindow) Limit() int64 {
	return int64(l.cfg.MaxCalls)
}

// HasCapacity reports whether a call would be admitted, without recording one.
func (l *RedisSlidingWindow) HasCapacity(ctx context.Context) (bool, error) {
	count, err := l.purgeAndCount(ctx)
	if err != nil {
		return false, err
	}
	return count < int64(l.cfg.MaxCalls), nil
}

// purgeAndCount drops markers older than the window and returns the remaining
// cardinality in one round trip.
func (l *RedisSlidingWindow) purgeAndCount(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-l.cfg.Window).UnixMilli()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, l.key, "0", strconv.FormatInt(cutoff, 10))
	zcard := pipe.ZCard(ctx, l.key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to purge rate limit window: %w", err)
	}
	return zcard.Val(), nil
}

// timeUntilCapacity computes how long until the oldest marker leaves the window.
func (l *RedisSlidingWindow) timeUntilCapacity(ctx context.Context) (time.Duration, error) {
	entries, err := l.client.ZRangeWithScores(ctx, l.key, 0, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read oldest call marker: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	oldest := time.UnixMilli(int64(entries[0].Score))
	wait := time.Until(oldest.Add(l.cfg.Window))
	if wait < 0 {
		return 0, nil
	}
	// small cushion so the retry lands after the marker has expired
	return wait + 50*time.Millisecond, nil
}

// minIntervalDelay reads the shared last-call timestamp and returns how long
// the caller must still wait to honor MinInterval. The read-then-set is not
// atomic; the interval only smooths bursts and tolerates racing instances.
func (l *RedisSlidingWindow) minIntervalDelay(ctx context.Context) (time.Duration, error) {
	val, err := l.client.Get(ctx, l.lastCallKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read last call timestamp: %w", err)
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, nil
	}
	delay := l.cfg.MinInterval - time.Since(time.UnixMilli(ms))
	if delay < 0 {
		return 0, nil
	}
	return delay, nil
}

// record inserts a call marker stamped now. The insert itself is atomic.
func (l *RedisSlidingWindow) record(ctx context.Context) error {
	now := time.Now()

	pipe := l.client.Pipeline()
	pipe.ZAdd(ctx, l.key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, l.key, 2*l.cfg.Window)
	if l.cfg.MinInterval > 0 {
		pipe.Set(ctx, l.lastCallKey, strconv.FormatInt(now.UnixMilli(), 10), 2*l.cfg.Window)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record rate limit call: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
