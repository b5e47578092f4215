package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fxnow/fxnow/internal/core/domain"
)

// fakeReader returns one configurable rate per currency code.
type fakeReader struct {
	rates map[string]decimal.Decimal
	err   error
	calls []string
}

func (f *fakeReader) GetCurrentRate(ctx context.Context, code string) (*domain.CurrentRate, error) {
	f.calls = append(f.calls, code)
	if f.err != nil {
		return nil, f.err
	}
	currency, err := domain.ParseCurrency(code)
	if err != nil {
		return nil, err
	}
	return &domain.CurrentRate{Currency: currency, Rate: f.rates[code], Timestamp: time.Now()}, nil
}

func (f *fakeReader) GetChart(ctx context.Context, baseCode, targetCode, periodCode string) (*domain.RateChart, error) {
	return nil, nil
}

func TestRefreshActive_PublishesOnlyChanges(t *testing.T) {
	reader := &fakeReader{rates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("1320.00"),
	}}
	tracker := NewActiveCurrencyTracker()
	tracker.Subscribe("USD")

	refresher := NewRateRefresher(reader, tracker, time.Minute, slog.Default())

	var published []*domain.CurrentRate
	refresher.OnRateChanged = func(rate *domain.CurrentRate) {
		published = append(published, rate)
	}

	ctx := context.Background()

	refresher.refreshActive(ctx)
	assert.Len(t, published, 1, "first observation is a change")

	refresher.refreshActive(ctx)
	assert.Len(t, published, 1, "unchanged rate must not republish")

	reader.rates["USD"] = decimal.RequireFromString("1325.00")
	refresher.refreshActive(ctx)
	assert.Len(t, published, 2)
	assert.True(t, decimal.RequireFromString("1325.00").Equal(published[1].Rate))
}

func TestRefreshActive_SkipsFailures(t *testing.T) {
	reader := &fakeReader{err: assert.AnError}
	tracker := NewActiveCurrencyTracker()
	tracker.Subscribe("USD")

	refresher := NewRateRefresher(reader, tracker, time.Minute, slog.Default())
	refresher.OnRateChanged = func(rate *domain.CurrentRate) {
		t.Fatal("must not publish on failure")
	}

	refresher.refreshActive(context.Background())
	assert.Len(t, reader.calls, 1)
}

func TestRefreshActive_OnlyWatchedCurrencies(t *testing.T) {
	reader := &fakeReader{rates: map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("1430.00"),
	}}
	tracker := NewActiveCurrencyTracker()
	tracker.Subscribe("EUR")

	refresher := NewRateRefresher(reader, tracker, time.Minute, slog.Default())
	refresher.refreshActive(context.Background())

	assert.Equal(t, []string{"EUR"}, reader.calls, "unwatched currencies spend no budget")
}

func TestWarmupCache_CoversAllSupportedCurrencies(t *testing.T) {
	reader := &fakeReader{rates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("1320.00"),
		"EUR": decimal.RequireFromString("1430.00"),
		"JPY": decimal.RequireFromString("8.85"),
		"CNY": decimal.RequireFromString("185.00"),
		"GBP": decimal.RequireFromString("1680.00"),
	}}

	WarmupCache(context.Background(), reader, slog.Default())

	assert.Len(t, reader.calls, len(domain.SupportedCurrencies()))
}

func TestWarmupCache_ToleratesFailures(t *testing.T) {
	reader := &fakeReader{err: assert.AnError}

	WarmupCache(context.Background(), reader, slog.Default())

	assert.Len(t, reader.calls, len(domain.SupportedCurrencies()), "one failure must not stop the pass")
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	reader := &fakeReader{rates: map[string]decimal.Decimal{}}
	refresher := NewRateRefresher(reader, NewActiveCurrencyTracker(), 10*time.Millisecond, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refresher.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after context cancel")
	}
}
