package services

import (
	"context"

	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/fxnow/fxnow/internal/dto"
)

// ExchangeRateReaderSvc defines read operations for exchange rate data.
type ExchangeRateReaderSvc interface {
	// GetCurrentRate resolves the latest rate for a currency code against KRW.
	GetCurrentRate(ctx context.Context, currencyCode string) (*domain.CurrentRate, error)

	// GetChart assembles the chart (points, per-point change, statistics) for
	// a currency pair and period code. The target currency must be KRW.
	GetChart(ctx context.Context, baseCode, targetCode, periodCode string) (*domain.RateChart, error)
}

// ConversionSvc defines the amount conversion operation.
type ConversionSvc interface {
	Convert(ctx context.Context, req dto.ConvertRequest) (*domain.ConversionResult, error)
}

// CurrencyReaderSvc defines read operations for currency metadata.
type CurrencyReaderSvc interface {
	ListCurrencies(ctx context.Context) []domain.Currency
}

// ExchangeRateSvcFacade combines all exchange-rate-facing service interfaces.
// This is the surface consumed by the HTTP layer, schedulers and cache warmers.
type ExchangeRateSvcFacade interface {
	ExchangeRateReaderSvc
	ConversionSvc
	CurrencyReaderSvc
}
