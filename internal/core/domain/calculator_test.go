package domain_test

import (
	"testing"

	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestConvertAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"whole units", "100", "1320.50", "132050.00"},
		{"fractional amount", "12.34", "1320.5012", "16294.98"},
		{"rounds half up", "1", "0.005", "0.01"},
		{"zero amount", "0", "1320.50", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ConvertAmount(d(tt.amount), d(tt.rate))
			assert.True(t, d(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	// Converting and dividing back at the source precision must reproduce the
	// original amount within one rounding unit.
	amounts := []string{"1", "12.34", "100", "9999.99", "0.01"}
	rate := d("1320.5012")

	for _, a := range amounts {
		amount := d(a)
		converted := domain.ConvertAmount(amount, rate)
		back := converted.DivRound(rate, 2)
		diff := back.Sub(amount).Abs()
		assert.True(t, diff.LessThanOrEqual(d("0.01")),
			"round-trip of %s drifted by %s", a, diff)
	}
}

func TestConvert_Scale(t *testing.T) {
	// JPY amounts carry no minor units.
	got := domain.Convert(d("1000"), d("9.1234"), 0)
	assert.True(t, d("9123").Equal(got), "got %s", got)
}

func TestChangePercent(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		previous string
		want     string
	}{
		{"rise", "1325.00", "1320.00", "0.38"},
		{"fall", "1320.00", "1325.00", "-0.38"},
		{"unchanged", "1320.00", "1320.00", "0.00"},
		{"zero previous yields zero", "1320.00", "0", "0.00"},
		{"small base", "1.0001", "1.0000", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ChangePercent(d(tt.current), d(tt.previous))
			assert.True(t, d(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestStatistics(t *testing.T) {
	rates := []decimal.Decimal{d("1320.00"), d("1325.00"), d("1330.00"), d("1315.00")}

	stats := domain.Statistics(rates)

	assert.True(t, d("1330.00").Equal(stats.High), "high %s", stats.High)
	assert.True(t, d("1315.00").Equal(stats.Low), "low %s", stats.Low)
	assert.True(t, d("1322.5000").Equal(stats.Average), "average %s", stats.Average)
	// Sample stddev of {1320,1325,1330,1315} is sqrt(125/3 * ... ) = 6.4549...
	assert.True(t, d("6.45").Equal(stats.StdDev), "stddev %s", stats.StdDev)
}

func TestStatistics_Empty(t *testing.T) {
	stats := domain.Statistics(nil)
	assert.True(t, stats.High.IsZero())
	assert.True(t, stats.Low.IsZero())
	assert.True(t, stats.Average.IsZero())
	assert.True(t, stats.StdDev.IsZero())
}

func TestStatistics_SinglePoint(t *testing.T) {
	stats := domain.Statistics([]decimal.Decimal{d("1320.00")})
	assert.True(t, d("1320.00").Equal(stats.High))
	assert.True(t, d("1320.00").Equal(stats.Low))
	assert.True(t, d("1320.0000").Equal(stats.Average))
	assert.True(t, stats.StdDev.IsZero(), "single sample has no deviation")
}

func TestStatistics_Constant(t *testing.T) {
	rates := []decimal.Decimal{d("1320.00"), d("1320.00"), d("1320.00")}
	stats := domain.Statistics(rates)
	require.True(t, stats.StdDev.IsZero(), "constant series must have zero stddev, got %s", stats.StdDev)
}
