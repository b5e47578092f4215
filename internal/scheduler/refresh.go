// Package scheduler drives periodic rate refreshes. It is a plain caller of
// the core service interface; the core does not know it exists.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/fxnow/fxnow/internal/core/domain"
	portssvc "github.com/fxnow/fxnow/internal/core/ports/services"
)

// RateRefresher periodically re-resolves the rates of actively watched
// currencies and invokes the publish hook when a value changed. The hook is
// how a broadcast layer (WebSocket or otherwise) learns about updates without
// the core depending on it.
type RateRefresher struct {
	service  portssvc.ExchangeRateReaderSvc
	tracker  *ActiveCurrencyTracker
	interval time.Duration
	logger   *slog.Logger

	// OnRateChanged is invoked outside any lock whenever a refreshed rate
	// differs from the previously published one. Optional.
	OnRateChanged func(rate *domain.CurrentRate)

	lastPublished map[string]string
}

// NewRateRefresher creates a refresher with the given polling interval.
func NewRateRefresher(service portssvc.ExchangeRateReaderSvc, tracker *ActiveCurrencyTracker, interval time.Duration, logger *slog.Logger) *RateRefresher {
	return &RateRefresher{
		service:       service,
		tracker:       tracker,
		interval:      interval,
		logger:        logger,
		lastPublished: make(map[string]string),
	}
}

// Start runs the refresh loop until the context is canceled.
func (r *RateRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Rate refresher stopped")
			return
		case <-ticker.C:
			r.refreshActive(ctx)
		}
	}
}

// refreshActive resolves every actively watched currency once. Failures are
// logged and skipped; the next tick retries.
func (r *RateRefresher) refreshActive(ctx context.Context) {
	for _, code := range r.tracker.Active() {
		rate, err := r.service.GetCurrentRate(ctx, code)
		if err != nil {
			r.logger.Warn("Failed to refresh rate",
				slog.String("currency", code),
				slog.String("error", err.Error()),
			)
			continue
		}

		key := rate.Rate.String()
		if r.lastPublished[code] == key {
			continue
		}
		r.lastPublished[code] = key

		if r.OnRateChanged != nil {
			r.OnRateChanged(rate)
		}
	}
}

// WarmupCache resolves every supported currency once so the first user
// request after startup hits a warm cache. Failures are non-fatal.
func WarmupCache(ctx context.Context, service portssvc.ExchangeRateReaderSvc, logger *slog.Logger) {
	for _, currency := range domain.SupportedCurrencies() {
		if _, err := service.GetCurrentRate(ctx, currency.Code); err != nil {
			logger.Warn("Cache warmup failed for currency",
				slog.String("currency", currency.Code),
				slog.String("error", err.Error()),
			)
		}
	}
	logger.Info("Cache warmup pass completed")
}
