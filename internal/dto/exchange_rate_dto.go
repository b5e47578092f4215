package dto

import (
	"time"

	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ConvertRequest defines the payload for converting an amount between currencies.
type ConvertRequest struct {
	FromCurrencyCode string          `json:"from" binding:"required,len=3"`
	ToCurrencyCode   string          `json:"to" binding:"required,len=3"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
}

// CurrentRateResponse is the API shape of a resolved current rate.
type CurrentRateResponse struct {
	CurrencyCode string          `json:"currencyCode"`
	Rate         decimal.Decimal `json:"rate"`
	Change       decimal.Decimal `json:"change"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ToCurrentRateResponse converts a domain.CurrentRate to its API shape.
func ToCurrentRateResponse(r *domain.CurrentRate) CurrentRateResponse {
	return CurrentRateResponse{
		CurrencyCode: r.Currency.Code,
		Rate:         r.Rate,
		Change:       r.Change,
		Timestamp:    r.Timestamp,
	}
}

// ChartPointResponse is one chart entry.
type ChartPointResponse struct {
	Date          string          `json:"date"` // YYYY-MM-DD
	Rate          decimal.Decimal `json:"rate"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// ChartStatisticsResponse summarizes the charted series.
type ChartStatisticsResponse struct {
	High    decimal.Decimal `json:"high"`
	Low     decimal.Decimal `json:"low"`
	Average decimal.Decimal `json:"average"`
	StdDev  decimal.Decimal `json:"stdDev"`
}

// ChartResponse is the API shape of an assembled rate chart.
type ChartResponse struct {
	BaseCurrency   string                  `json:"baseCurrency"`
	TargetCurrency string                  `json:"targetCurrency"`
	Period         string                  `json:"period"`
	CurrentRate    decimal.Decimal         `json:"currentRate"`
	Change         decimal.Decimal         `json:"change"`
	ChangePercent  decimal.Decimal         `json:"changePercent"`
	UpdatedAt      time.Time               `json:"updatedAt"`
	Points         []ChartPointResponse    `json:"points"`
	Statistics     ChartStatisticsResponse `json:"statistics"`
}

// ToChartResponse converts a domain.RateChart to its API shape.
func ToChartResponse(chart *domain.RateChart) ChartResponse {
	points := make([]ChartPointResponse, len(chart.Points))
	for i, p := range chart.Points {
		points[i] = ChartPointResponse{
			Date:          p.Date.Format("2006-01-02"),
			Rate:          p.Rate,
			ChangePercent: p.ChangePercent,
		}
	}
	return ChartResponse{
		BaseCurrency:   chart.Base.Code,
		TargetCurrency: chart.Target.Code,
		Period:         chart.Period.Code,
		CurrentRate:    chart.CurrentRate,
		Change:         chart.Change,
		ChangePercent:  chart.ChangePercent,
		UpdatedAt:      chart.UpdatedAt,
		Points:         points,
		Statistics: ChartStatisticsResponse{
			High:    chart.Statistics.High,
			Low:     chart.Statistics.Low,
			Average: chart.Statistics.Average,
			StdDev:  chart.Statistics.StdDev,
		},
	}
}

// ConversionResponse is the API shape of a conversion result.
type ConversionResponse struct {
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ConvertedAmount  decimal.Decimal `json:"convertedAmount"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`
	Timestamp        time.Time       `json:"timestamp"`
}

// ToConversionResponse converts a domain.ConversionResult to its API shape.
func ToConversionResponse(r *domain.ConversionResult) ConversionResponse {
	return ConversionResponse{
		OriginalAmount:   r.OriginalAmount,
		FromCurrencyCode: r.From.Code,
		ConvertedAmount:  r.ConvertedAmount,
		ToCurrencyCode:   r.To.Code,
		ExchangeRate:     r.Rate,
		Timestamp:        r.Timestamp,
	}
}
