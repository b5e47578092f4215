package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/fxnow/fxnow/internal/core/ports"
)

// CacheConfig tunes the top cache tier.
type CacheConfig struct {
	KeyPrefix string        // e.g. "fxnow"
	BaseTTL   time.Duration // primary entry TTL before jitter
	Jitter    float64       // fraction of BaseTTL to randomize by, e.g. 0.2 for ±20%
	StaleTTL  time.Duration // shadow copy TTL, e.g. 7 days
}

// CachedRateProvider is the top tier: a short-TTL read-through cache in front
// of the persistence tier. TTLs are jittered per key to decorrelate
// expirations and prevent a synchronized miss flood against the tier below.
// Alongside the primary entry it writes a long-TTL stale shadow copy that is
// never read on the normal path, reserved as a manual emergency fallback.
type CachedRateProvider struct {
	delegate ports.RateProvider
	client   *redis.Client
	cfg      CacheConfig
}

// NewCachedRateProvider wraps the persistence tier with the Redis cache.
func NewCachedRateProvider(delegate ports.RateProvider, client *redis.Client, cfg CacheConfig) *CachedRateProvider {
	return &CachedRateProvider{delegate: delegate, client: client, cfg: cfg}
}

// cachedRate is the JSON shape stored in Redis for a current rate.
type cachedRate struct {
	Rate      decimal.Decimal `json:"rate"`
	Change    decimal.Decimal `json:"change"`
	Timestamp time.Time       `json:"timestamp"`
}

// GetCurrentRate returns the cached value when present. KRW, the reference
// currency, short-circuits to 1 without touching any tier.
func (p *CachedRateProvider) GetCurrentRate(ctx context.Context, currency domain.Currency) (*domain.CurrentRate, error) {
	if currency.IsReference() {
		return domain.NewCurrentRate(currency, decimal.NewFromInt(1), decimal.Zero, time.Now())
	}

	key := p.currentRateKey(currency)
	var cached cachedRate
	if p.lookup(ctx, key, &cached) {
		if cached.Rate.IsPositive() {
			return &domain.CurrentRate{
				Currency:  currency,
				Rate:      cached.Rate,
				Change:    cached.Change,
				Timestamp: cached.Timestamp,
			}, nil
		}
		p.discard(ctx, key)
	}

	current, err := p.delegate.GetCurrentRate(ctx, currency)
	if err != nil {
		return nil, err
	}

	p.writeThrough(ctx, key, p.staleKey(currency), cachedRate{
		Rate:      current.Rate,
		Change:    current.Change,
		Timestamp: current.Timestamp,
	})
	return current, nil
}

// GetHistory returns the cached series when present, keyed by currency and period.
func (p *CachedRateProvider) GetHistory(ctx context.Context, currency domain.Currency, period domain.ChartPeriod) ([]domain.DailyRate, error) {
	key := p.historyKey(currency, period)
	var cached []domain.DailyRate
	if p.lookup(ctx, key, &cached) {
		if validSeries(cached) {
			return cached, nil
		}
		p.discard(ctx, key)
	}

	rates, err := p.delegate.GetHistory(ctx, currency, period)
	if err != nil {
		return nil, err
	}

	p.writeThrough(ctx, key, p.staleHistoryKey(currency, period), rates)
	return rates, nil
}

// validSeries reports whether an unmarshaled series is usable: non-empty with
// every rate positive. An old payload layout can decode cleanly into zero
// values, which must count as a bad entry, not a hit.
func validSeries(series []domain.DailyRate) bool {
	if len(series) == 0 {
		return false
	}
	for _, r := range series {
		if !r.Rate.IsPositive() {
			return false
		}
	}
	return true
}

// discard removes a cache entry that decoded cleanly but failed validation.
func (p *CachedRateProvider) discard(ctx context.Context, key string) {
	slog.Warn("deleting cache entry with unexpected shape", slog.String("key", key))
	p.client.Del(ctx, key)
}

// lookup reads and unmarshals one cache entry. An entry of an unexpected
// shape is deleted and treated as a miss, never as a failure.
func (p *CachedRateProvider) lookup(ctx context.Context, key string, dest any) bool {
	data, err := p.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		slog.Warn("deleting cache entry with unexpected shape",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		p.client.Del(ctx, key)
		return false
	}
	return true
}

// writeThrough stores the primary entry with a jittered TTL plus the stale
// shadow copy. Cache write failures are logged, not surfaced: the value was
// already resolved.
func (p *CachedRateProvider) writeThrough(ctx context.Context, key, staleKey string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("failed to marshal cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	ttl := ttlWithJitter(p.cfg.BaseTTL, p.cfg.Jitter)
	if err := p.client.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	slog.Debug("cached entry", slog.String("key", key), slog.Duration("ttl", ttl))

	if err := p.client.Set(ctx, staleKey, data, p.cfg.StaleTTL).Err(); err != nil {
		slog.Warn("stale copy write failed", slog.String("key", staleKey), slog.String("error", err.Error()))
	}
}

// ttlWithJitter randomizes a TTL by ±jitter to decorrelate key expirations,
// floored at half the base TTL.
func ttlWithJitter(base time.Duration, jitter float64) time.Duration {
	factor := 1 + (rand.Float64()*2-1)*jitter
	if factor < 0.5 {
		factor = 0.5
	}
	return time.Duration(float64(base) * factor)
}

// currentRateKey includes today's date so entries roll over at midnight even
// before their TTL expires.
func (p *CachedRateProvider) currentRateKey(currency domain.Currency) string {
	return fmt.Sprintf("%s:exchange_rate:%s:%s", p.cfg.KeyPrefix, currency.Code, time.Now().Format("2006-01-02"))
}

func (p *CachedRateProvider) staleKey(currency domain.Currency) string {
	return fmt.Sprintf("%s:exchange_rate_stale:%s", p.cfg.KeyPrefix, currency.Code)
}

func (p *CachedRateProvider) historyKey(currency domain.Currency, period domain.ChartPeriod) string {
	return fmt.Sprintf("%s:chart:%s:%s", p.cfg.KeyPrefix, currency.Code, period.Code)
}

func (p *CachedRateProvider) staleHistoryKey(currency domain.Currency, period domain.ChartPeriod) string {
	return fmt.Sprintf("%s:chart_stale:%s:%s", p.cfg.KeyPrefix, currency.Code, period.Code)
}
