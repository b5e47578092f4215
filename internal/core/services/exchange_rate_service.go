package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fxnow/fxnow/internal/apperrors"
	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/fxnow/fxnow/internal/core/ports"
	"github.com/fxnow/fxnow/internal/dto"
)

// ExchangeRateService provides the business operations over the resolution
// chain: current rate lookup, chart assembly and amount conversion.
type ExchangeRateService struct {
	provider ports.RateProvider
}

// NewExchangeRateService creates a new ExchangeRateService on top of the
// composed provider chain.
func NewExchangeRateService(provider ports.RateProvider) *ExchangeRateService {
	return &ExchangeRateService{provider: provider}
}

// GetCurrentRate resolves the latest rate for a currency code against KRW.
func (s *ExchangeRateService) GetCurrentRate(ctx context.Context, currencyCode string) (*domain.CurrentRate, error) {
	currency, err := domain.ParseCurrency(currencyCode)
	if err != nil {
		return nil, err
	}

	rate, err := s.provider.GetCurrentRate(ctx, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoData) {
			// No tier could substitute a recent value.
			return nil, fmt.Errorf("%w: no rate available for %s", apperrors.ErrNotFound, currency.Code)
		}
		return nil, fmt.Errorf("failed to resolve current rate: %w", err)
	}
	return rate, nil
}

// GetChart assembles the rate chart for a currency pair and period: ordered
// points with point-to-point change, series statistics and the headline rate.
// Charts are only defined against the reference currency.
func (s *ExchangeRateService) GetChart(ctx context.Context, baseCode, targetCode, periodCode string) (*domain.RateChart, error) {
	base, err := domain.ParseCurrency(baseCode)
	if err != nil {
		return nil, err
	}
	target, err := domain.ParseCurrency(targetCode)
	if err != nil {
		return nil, err
	}
	if !target.IsReference() {
		return nil, fmt.Errorf("%w: chart target currency must be %s", apperrors.ErrValidation, domain.KRW.Code)
	}
	pair, err := domain.NewCurrencyPair(base, target)
	if err != nil {
		return nil, err
	}
	period, err := domain.ParseChartPeriod(periodCode)
	if err != nil {
		return nil, err
	}

	series, err := s.provider.GetHistory(ctx, base, period)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoData) {
			return nil, fmt.Errorf("%w: no history for %s over %s", apperrors.ErrNotFound, pair.PairCode(), period.Code)
		}
		return nil, fmt.Errorf("failed to resolve history: %w", err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no history for %s over %s", apperrors.ErrNotFound, pair.PairCode(), period.Code)
	}

	return buildChart(base, target, period, series), nil
}

// buildChart derives per-point change and statistics from an ascending series.
func buildChart(base, target domain.Currency, period domain.ChartPeriod, series []domain.DailyRate) *domain.RateChart {
	points := make([]domain.ChartPoint, len(series))
	rates := make([]decimal.Decimal, len(series))
	for i, r := range series {
		change := decimal.Zero
		if i > 0 {
			change = domain.ChangePercent(r.Rate, series[i-1].Rate)
		}
		points[i] = domain.ChartPoint{Date: r.Date, Rate: r.Rate, ChangePercent: change}
		rates[i] = r.Rate
	}

	current := rates[len(rates)-1]
	change := decimal.Zero
	changePercent := decimal.Zero
	if len(rates) > 1 {
		previous := rates[len(rates)-2]
		change = current.Sub(previous)
		changePercent = domain.ChangePercent(current, previous)
	}

	return &domain.RateChart{
		Base:          base,
		Target:        target,
		Period:        period,
		CurrentRate:   current,
		Change:        change,
		ChangePercent: changePercent,
		UpdatedAt:     time.Now(),
		Points:        points,
		Statistics:    domain.Statistics(rates),
	}
}

// Convert converts an amount between two currencies through their KRW rates,
// rounded half-up at the target currency's minor-unit scale. Same-currency
// requests return the amount unchanged.
func (s *ExchangeRateService) Convert(ctx context.Context, req dto.ConvertRequest) (*domain.ConversionResult, error) {
	from, err := domain.ParseCurrency(req.FromCurrencyCode)
	if err != nil {
		return nil, err
	}
	to, err := domain.ParseCurrency(req.ToCurrencyCode)
	if err != nil {
		return nil, err
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	if from.Code == to.Code {
		return &domain.ConversionResult{
			OriginalAmount:  req.Amount,
			From:            from,
			ConvertedAmount: req.Amount,
			To:              to,
			Rate:            decimal.NewFromInt(1),
			Timestamp:       time.Now(),
		}, nil
	}

	fromRate, err := s.GetCurrentRate(ctx, from.Code)
	if err != nil {
		return nil, err
	}
	toRate, err := s.GetCurrentRate(ctx, to.Code)
	if err != nil {
		return nil, err
	}

	crossRate := fromRate.Rate.DivRound(toRate.Rate, domain.RatePrecision)
	converted := domain.Convert(req.Amount, crossRate, to.DecimalPlaces)

	return &domain.ConversionResult{
		OriginalAmount:  req.Amount,
		From:            from,
		ConvertedAmount: converted,
		To:              to,
		Rate:            crossRate,
		Timestamp:       time.Now(),
	}, nil
}

// ListCurrencies returns every known currency including the reference currency.
func (s *ExchangeRateService) ListCurrencies(_ context.Context) []domain.Currency {
	return domain.ListCurrencies()
}
