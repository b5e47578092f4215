package domain

import (
	"fmt"
	"time"

	"github.com/fxnow/fxnow/internal/apperrors"
)

// ChartPeriod is one supported chart lookback window.
type ChartPeriod struct {
	Code string `json:"code"`
	Days int    `json:"days"`
}

var (
	PeriodOneDay      = ChartPeriod{Code: "1d", Days: 1}
	PeriodOneWeek     = ChartPeriod{Code: "1w", Days: 7}
	PeriodOneMonth    = ChartPeriod{Code: "1m", Days: 30}
	PeriodThreeMonths = ChartPeriod{Code: "3m", Days: 90}
	PeriodOneYear     = ChartPeriod{Code: "1y", Days: 365}
)

var chartPeriods = []ChartPeriod{
	PeriodOneDay, PeriodOneWeek, PeriodOneMonth, PeriodThreeMonths, PeriodOneYear,
}

// ParseChartPeriod resolves a period code like "1m".
func ParseChartPeriod(code string) (ChartPeriod, error) {
	for _, p := range chartPeriods {
		if p.Code == code {
			return p, nil
		}
	}
	return ChartPeriod{}, fmt.Errorf("%w: unknown period code '%s'", apperrors.ErrValidation, code)
}

// StartDate returns the first day of the lookback window ending at now.
func (p ChartPeriod) StartDate(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.Days)
}

// EndDate returns the last day of the lookback window.
func (p ChartPeriod) EndDate(now time.Time) time.Time {
	return now
}

// RequiredSampleCount estimates how many rows to request from the upstream
// for this window. The upstream only has rows for business days, so the count
// excludes weekends, knocks off roughly 10% for public holidays and then adds
// 20% headroom so a short response never truncates the window. Clamped to
// [1, 400]; a full year needs ~280 rows, so the cap never cuts into a window.
func (p ChartPeriod) RequiredSampleCount(now time.Time) int {
	start := p.StartDate(now)
	end := p.EndDate(now)

	businessDays := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			businessDays++
		}
	}

	estimated := businessDays - businessDays/10
	count := (estimated*12 + 9) / 10 // ceil(estimated * 1.2)

	if count < 1 {
		return 1
	}
	if count > 400 {
		return 400
	}
	return count
}

// CoveredByIntraday reports whether the window is short enough to be served
// from accumulated intraday snapshots instead of the upstream's daily series.
func (p ChartPeriod) CoveredByIntraday() bool {
	return p.Days <= 1
}
