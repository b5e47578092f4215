// Package bok implements the upstream tier of the rate resolution chain
// against the Bank of Korea ECOS statistics API.
package bok

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fxnow/fxnow/internal/apperrors"
	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/fxnow/fxnow/internal/core/ports"
)

const dateFormat = "20060102"

// Client fetches and normalizes daily quote series from the ECOS
// StatisticSearch endpoint. It implements ports.RateProvider as the bottom of
// the chain: every call consumes a rate limiter permit before touching the
// network.
type Client struct {
	baseURL    string
	apiKey     string
	statCode   string
	httpClient *http.Client
	limiter    ports.UpstreamLimiter
}

// NewClient creates an upstream client. statCode identifies the daily
// exchange-rate statistic table (731Y001).
func NewClient(baseURL, apiKey, statCode string, timeout time.Duration, limiter ports.UpstreamLimiter) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		statCode:   statCode,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// GetCurrentRate fetches today's quote for one currency. Returns
// apperrors.ErrNoData when the upstream has no row for today (holiday),
// signaling the tier above to substitute the most recent known value.
func (c *Client) GetCurrentRate(ctx context.Context, currency domain.Currency) (*domain.CurrentRate, error) {
	today := time.Now()
	rows, err := c.fetch(ctx, currency, today, today, 1)
	if err != nil {
		return nil, err
	}

	quote, err := decimal.NewFromString(rows[0].DataValue)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable rate value '%s'", apperrors.ErrUnavailable, rows[0].DataValue)
	}

	return domain.NewCurrentRate(currency, currency.NormalizeUpstreamRate(quote), decimal.Zero, time.Now())
}

// GetHistory fetches the daily series for a period, unit-normalized and
// ascending by date.
func (c *Client) GetHistory(ctx context.Context, currency domain.Currency, period domain.ChartPeriod) ([]domain.DailyRate, error) {
	now := time.Now()
	rows, err := c.fetch(ctx, currency, period.StartDate(now), period.EndDate(now), period.RequiredSampleCount(now))
	if err != nil {
		return nil, err
	}

	rates := make([]domain.DailyRate, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateFormat, row.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: unparseable row date '%s'", apperrors.ErrUnavailable, row.Time)
		}
		quote, err := decimal.NewFromString(row.DataValue)
		if err != nil {
			return nil, fmt.Errorf("%w: unparseable rate value '%s'", apperrors.ErrUnavailable, row.DataValue)
		}
		rate, err := domain.NewDailyRate(date, currency.NormalizeUpstreamRate(quote))
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Date.Before(rates[j].Date) })
	return rates, nil
}

// fetch runs the full request path: reject unsupported currencies before any
// network call, acquire a permit, issue the request and classify the response.
func (c *Client) fetch(ctx context.Context, currency domain.Currency, start, end time.Time, count int) ([]statisticRow, error) {
	if !currency.IsSupported() {
		return nil, fmt.Errorf("%w: currency %s is not quoted by the upstream source", apperrors.ErrValidation, currency.Code)
	}

	if _, err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/StatisticSearch/%s/json/kr/1/%d/%s/D/%s/%s/%s",
		c.baseURL, c.apiKey, count, c.statCode,
		start.Format(dateFormat), end.Format(dateFormat), currency.BokCode,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", apperrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected HTTP status %d", apperrors.ErrUnavailable, resp.StatusCode)
	}

	var parsed statisticSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response body: %v", apperrors.ErrUnavailable, err)
	}

	return c.classify(currency, &parsed)
}

// classify maps the upstream's status codes onto the error taxonomy. The
// recognized "no data" code becomes the ErrNoData sentinel; everything else
// that is not a clean success becomes ErrUnavailable with the upstream's
// code and message attached.
func (c *Client) classify(currency domain.Currency, parsed *statisticSearchResponse) ([]statisticRow, error) {
	logger := slog.Default().With(slog.String("currency", currency.Code))

	if result := parsed.resultCode(); result != nil && result.Code != codeOK {
		switch result.Code {
		case codeNoData:
			logger.Info("upstream has no data for range (holiday or weekend)")
			return nil, fmt.Errorf("%w: %s", apperrors.ErrNoData, result.Message)
		case codeAuthFailed:
			logger.Error("upstream authentication failed", slog.String("code", result.Code))
		case codeBadRequest1, codeBadRequest2, codeBadRequest3, codeBadRequest4, codeBadRequest5:
			logger.Error("upstream rejected request parameters", slog.String("code", result.Code), slog.String("message", result.Message))
		case codeTimeout:
			logger.Error("upstream timed out, search range too large", slog.String("code", result.Code))
		case codeServerError, codeStorageError1, codeStorageError2:
			logger.Error("upstream server error", slog.String("code", result.Code), slog.String("message", result.Message))
		case codeUpstreamLimit:
			logger.Error("upstream rate limit exceeded", slog.String("code", result.Code))
		default:
			logger.Error("upstream returned unknown status", slog.String("code", result.Code), slog.String("message", result.Message))
		}
		return nil, fmt.Errorf("%w: upstream status %s: %s", apperrors.ErrUnavailable, result.Code, result.Message)
	}

	if parsed.StatisticSearch == nil {
		return nil, fmt.Errorf("%w: response has no StatisticSearch object", apperrors.ErrUnavailable)
	}

	// A successful status with zero rows is a malformed response, distinct
	// from the recognized no-data status above.
	if len(parsed.StatisticSearch.Rows) == 0 {
		return nil, fmt.Errorf("%w: successful status but no rows returned", apperrors.ErrUnavailable)
	}

	return parsed.StatisticSearch.Rows, nil
}
