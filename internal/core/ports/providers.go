package ports

import (
	"context"
	"time"

	"github.com/fxnow/fxnow/internal/core/domain"
)

// RateProvider is the single contract every tier of the resolution chain
// implements. The chain is composed by wrapping: the cache tier holds a
// reference to the persistence tier, which holds a reference to the upstream
// tier.
type RateProvider interface {
	// GetCurrentRate resolves the latest rate for a currency against KRW.
	// Returns apperrors.ErrNoData when the upstream has no rows for today and
	// no tier below could substitute, apperrors.ErrNotFound when no data
	// exists anywhere in the chain.
	GetCurrentRate(ctx context.Context, currency domain.Currency) (*domain.CurrentRate, error)

	// GetHistory resolves the dated rate series for a period, ascending by date.
	GetHistory(ctx context.Context, currency domain.Currency, period domain.ChartPeriod) ([]domain.DailyRate, error)
}

// UpstreamLimiter guards calls to the upstream source. Admission state is
// shared across all running instances.
type UpstreamLimiter interface {
	// Acquire admits one upstream call or fails with *apperrors.RateLimitError.
	// The returned duration is how long the caller was blocked (zero under the
	// fail-fast policy).
	Acquire(ctx context.Context) (time.Duration, error)

	// CurrentCount reports the number of calls in the trailing window.
	CurrentCount(ctx context.Context) (int64, error)

	// Limit reports the configured window capacity.
	Limit() int64

	// HasCapacity reports whether a call would currently be admitted, without
	// consuming a permit.
	HasCapacity(ctx context.Context) (bool, error)
}
