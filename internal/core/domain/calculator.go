package domain

import (
	"github.com/shopspring/decimal"
)

// Monetary rounding contract: half-up, 4 decimal places for rates and derived
// statistics, 2 for converted amounts and percentages.
const (
	amountScale  int32 = 2
	percentScale int32 = 2
	sqrtScale    int32 = 8
)

var oneHundred = decimal.NewFromInt(100)

// Convert applies a rate to an amount, rounded half-up at the given scale.
func Convert(amount, rate decimal.Decimal, scale int32) decimal.Decimal {
	return amount.Mul(rate).Round(scale)
}

// ConvertAmount applies a rate to an amount at the standard two-decimal scale.
func ConvertAmount(amount, rate decimal.Decimal) decimal.Decimal {
	return Convert(amount, rate, amountScale)
}

// ChangePercent returns the percentage change from previous to current,
// rounded half-up to two decimal places. Defined as zero when previous is zero.
func ChangePercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).
		DivRound(previous, RatePrecision).
		Mul(oneHundred).
		Round(percentScale)
}

// ChartStatistics summarizes an ordered rate series.
type ChartStatistics struct {
	High    decimal.Decimal `json:"high"`
	Low     decimal.Decimal `json:"low"`
	Average decimal.Decimal `json:"average"`
	StdDev  decimal.Decimal `json:"stdDev"`
}

// Statistics computes high, low, mean (4dp) and sample standard deviation
// (2dp, for display) over an ordered rate series.
func Statistics(rates []decimal.Decimal) ChartStatistics {
	if len(rates) == 0 {
		return ChartStatistics{
			High: decimal.Zero, Low: decimal.Zero, Average: decimal.Zero, StdDev: decimal.Zero,
		}
	}

	high := rates[0]
	low := rates[0]
	sum := decimal.Zero
	for _, r := range rates {
		if r.GreaterThan(high) {
			high = r
		}
		if r.LessThan(low) {
			low = r
		}
		sum = sum.Add(r)
	}
	n := decimal.NewFromInt(int64(len(rates)))
	mean := sum.DivRound(n, RatePrecision)

	return ChartStatistics{
		High:    high,
		Low:     low,
		Average: mean,
		StdDev:  sampleStdDev(rates, mean),
	}
}

// sampleStdDev computes the sample standard deviation (n-1 denominator) of a
// series around its mean, rounded to two decimal places.
func sampleStdDev(rates []decimal.Decimal, mean decimal.Decimal) decimal.Decimal {
	if len(rates) < 2 {
		return decimal.Zero
	}
	sumSq := decimal.Zero
	for _, r := range rates {
		diff := r.Sub(mean)
		sumSq = sumSq.Add(diff.Mul(diff))
	}
	variance := sumSq.DivRound(decimal.NewFromInt(int64(len(rates)-1)), sqrtScale)
	return sqrtNewton(variance).Round(percentScale)
}

// sqrtNewton computes a square root by Newton's method, iterating
// x' = (x + v/x)/2 until the estimate stabilizes at sqrtScale decimals.
func sqrtNewton(v decimal.Decimal) decimal.Decimal {
	if v.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	two := decimal.NewFromInt(2)
	x := v
	if x.LessThan(decimal.NewFromInt(1)) {
		x = decimal.NewFromInt(1)
	}
	for i := 0; i < 50; i++ {
		next := x.Add(v.DivRound(x, sqrtScale)).DivRound(two, sqrtScale)
		if next.Equal(x) {
			break
		}
		x = next
	}
	return x
}
