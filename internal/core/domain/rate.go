package domain

import (
	"fmt"
	"time"

	"github.com/fxnow/fxnow/internal/apperrors"
	"github.com/shopspring/decimal"
)

// DailyRate is one dated observation of a currency's rate against KRW.
// Values are immutable once created.
type DailyRate struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// NewDailyRate builds a DailyRate, enforcing the positive-rate invariant.
func NewDailyRate(date time.Time, rate decimal.Decimal) (DailyRate, error) {
	if rate.LessThanOrEqual(decimal.Zero) {
		return DailyRate{}, fmt.Errorf("%w: rate must be positive, got %s", apperrors.ErrValidation, rate)
	}
	return DailyRate{Date: date, Rate: rate}, nil
}

// CurrentRate is the latest resolved rate for one currency.
type CurrentRate struct {
	Currency  Currency        `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	Change    decimal.Decimal `json:"change"` // absolute change vs the previous snapshot
	Timestamp time.Time       `json:"timestamp"`
}

// NewCurrentRate builds a CurrentRate, enforcing the positive-rate invariant.
func NewCurrentRate(currency Currency, rate, change decimal.Decimal, ts time.Time) (*CurrentRate, error) {
	if rate.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: rate must be positive, got %s", apperrors.ErrValidation, rate)
	}
	return &CurrentRate{Currency: currency, Rate: rate, Change: change, Timestamp: ts}, nil
}

// RateSnapshot is one persisted (currency, rate, change, timestamp)
// observation. Snapshots are append-only: a later intraday reading is a new
// snapshot, never an update.
type RateSnapshot struct {
	SnapshotID string
	Currency   Currency
	Rate       decimal.Decimal
	Change     decimal.Decimal
	Timestamp  time.Time
}

// ToCurrentRate views a snapshot as a current rate.
func (s RateSnapshot) ToCurrentRate() *CurrentRate {
	return &CurrentRate{
		Currency:  s.Currency,
		Rate:      s.Rate,
		Change:    s.Change,
		Timestamp: s.Timestamp,
	}
}

// ChartPoint is one chart entry with the change vs the previous point.
type ChartPoint struct {
	Date          time.Time       `json:"date"`
	Rate          decimal.Decimal `json:"rate"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// RateChart is the assembled chart for one currency pair and period.
type RateChart struct {
	Base          Currency        `json:"baseCurrency"`
	Target        Currency        `json:"targetCurrency"`
	Period        ChartPeriod     `json:"period"`
	CurrentRate   decimal.Decimal `json:"currentRate"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Points        []ChartPoint    `json:"points"`
	Statistics    ChartStatistics `json:"statistics"`
}

// ConversionResult is the outcome of converting an amount between currencies.
type ConversionResult struct {
	OriginalAmount  decimal.Decimal `json:"originalAmount"`
	From            Currency        `json:"fromCurrency"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	To              Currency        `json:"toCurrency"`
	Rate            decimal.Decimal `json:"exchangeRate"`
	Timestamp       time.Time       `json:"timestamp"`
}
