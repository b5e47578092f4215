// Package providers implements the cache and persistence tiers of the rate
// resolution chain. Each provider holds a reference to the tier beneath it and
// writes through before returning.
package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fxnow/fxnow/internal/apperrors"
	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/fxnow/fxnow/internal/core/ports"
	portsrepo "github.com/fxnow/fxnow/internal/core/ports/repositories"
)

// fallbackLookbackDays bounds how far back the holiday fallback searches for
// the most recent prior snapshot.
const fallbackLookbackDays = 7

// DatabaseRateProvider is the mid-tier: a read-through day-granular cache over
// the snapshot store and the system of record for intraday history. It owns
// the "no data" fallback decision: when the upstream reports a holiday, it
// substitutes the most recent snapshot within the lookback window.
type DatabaseRateProvider struct {
	delegate ports.RateProvider
	repo     portsrepo.RateSnapshotRepositoryFacade
}

// NewDatabaseRateProvider wraps the upstream tier with snapshot persistence.
func NewDatabaseRateProvider(delegate ports.RateProvider, repo portsrepo.RateSnapshotRepositoryFacade) *DatabaseRateProvider {
	return &DatabaseRateProvider{delegate: delegate, repo: repo}
}

// GetCurrentRate serves today's snapshot when one exists; otherwise it asks
// the tier below, persists the result and returns it. A holiday signal from
// below triggers the bounded backward search instead of an error.
func (p *DatabaseRateProvider) GetCurrentRate(ctx context.Context, currency domain.Currency) (*domain.CurrentRate, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	today, err := p.repo.FindLatestInRange(ctx, currency, startOfDay, endOfDay)
	if err == nil {
		slog.Debug("snapshot hit for today", slog.String("currency", currency.Code))
		return today.ToCurrentRate(), nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up today's snapshot: %w", err)
	}

	current, err := p.delegate.GetCurrentRate(ctx, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoData) {
			return p.fallbackToRecent(ctx, currency, startOfDay, endOfDay)
		}
		return nil, err
	}

	change := decimal.Zero
	prior, priorErr := p.repo.FindLatestInRange(ctx, currency, time.Time{}, startOfDay)
	if priorErr == nil {
		change = current.Rate.Sub(prior.Rate)
	} else if !errors.Is(priorErr, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up prior snapshot: %w", priorErr)
	}

	snapshot := domain.RateSnapshot{
		SnapshotID: uuid.NewString(),
		Currency:   currency,
		Rate:       current.Rate,
		Change:     change,
		Timestamp:  now,
	}
	if err := p.repo.SaveSnapshot(ctx, snapshot); err != nil {
		// A benign race with another instance can produce a duplicate
		// same-timestamp snapshot; losing this write is preferable to
		// failing the resolution.
		slog.Warn("failed to persist rate snapshot",
			slog.String("currency", currency.Code),
			slog.String("error", err.Error()),
		)
	}

	return domain.NewCurrentRate(currency, current.Rate, change, now)
}

// fallbackToRecent searches backward up to fallbackLookbackDays for the most
// recent snapshot and returns it as best effort. Only when nothing exists does
// the resolution fail with NotFound.
func (p *DatabaseRateProvider) fallbackToRecent(ctx context.Context, currency domain.Currency, startOfDay, endOfDay time.Time) (*domain.CurrentRate, error) {
	lookbackStart := startOfDay.AddDate(0, 0, -fallbackLookbackDays)

	recent, err := p.repo.FindLatestInRange(ctx, currency, lookbackStart, endOfDay)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no data from upstream or store for %s", apperrors.ErrNotFound, currency.Code)
		}
		return nil, fmt.Errorf("failed fallback snapshot lookup: %w", err)
	}

	slog.Info("upstream has no data, substituting recent snapshot",
		slog.String("currency", currency.Code),
		slog.Time("snapshot_at", recent.Timestamp),
	)
	return recent.ToCurrentRate(), nil
}

// GetHistory serves short windows from accumulated intraday snapshots and
// delegates longer windows entirely to the tier below; it never synthesizes
// long multi-month history from sparse intraday data.
func (p *DatabaseRateProvider) GetHistory(ctx context.Context, currency domain.Currency, period domain.ChartPeriod) ([]domain.DailyRate, error) {
	if !period.CoveredByIntraday() {
		return p.delegate.GetHistory(ctx, currency, period)
	}

	now := time.Now()
	snapshots, err := p.repo.FindByCurrencyAndRange(ctx, currency, period.StartDate(now), now)
	if err != nil {
		return nil, fmt.Errorf("failed to read intraday snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return p.delegate.GetHistory(ctx, currency, period)
	}

	rates := make([]domain.DailyRate, 0, len(snapshots))
	for _, s := range snapshots {
		rate, err := domain.NewDailyRate(s.Timestamp, s.Rate)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, nil
}
