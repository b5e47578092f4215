package domain

import (
	"fmt"
	"strings"

	"github.com/fxnow/fxnow/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Currency describes one supported currency and how the upstream source quotes
// it. Rates are always expressed against KRW, the reference currency.
type Currency struct {
	Code          string `json:"currencyCode"` // ISO 4217 code (e.g. "USD")
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	DecimalPlaces int32  `json:"decimalPlaces"` // minor units for converted amounts
	BokCode       string `json:"-"`             // upstream instrument code, empty for KRW
	QuotingUnits  int64  `json:"-"`             // foreign units per upstream quote (100 for JPY)
}

var (
	USD = Currency{Code: "USD", Name: "US Dollar", Symbol: "$", DecimalPlaces: 2, BokCode: "0000001", QuotingUnits: 1}
	EUR = Currency{Code: "EUR", Name: "Euro", Symbol: "€", DecimalPlaces: 2, BokCode: "0000003", QuotingUnits: 1}
	JPY = Currency{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", DecimalPlaces: 0, BokCode: "0000002", QuotingUnits: 100}
	CNY = Currency{Code: "CNY", Name: "Chinese Yuan", Symbol: "¥", DecimalPlaces: 2, BokCode: "0000027", QuotingUnits: 1}
	GBP = Currency{Code: "GBP", Name: "British Pound", Symbol: "£", DecimalPlaces: 2, BokCode: "0000012", QuotingUnits: 1}
	KRW = Currency{Code: "KRW", Name: "Korean Won", Symbol: "₩", DecimalPlaces: 0, QuotingUnits: 1}
)

// currencies holds every known currency keyed by code.
var currencies = map[string]Currency{
	"USD": USD,
	"EUR": EUR,
	"JPY": JPY,
	"CNY": CNY,
	"GBP": GBP,
	"KRW": KRW,
}

// RatePrecision is the internal scale for stored and derived rates.
const RatePrecision int32 = 4

// ParseCurrency resolves a currency code (case-insensitive) to a known currency.
func ParseCurrency(code string) (Currency, error) {
	c, ok := currencies[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Currency{}, fmt.Errorf("%w: unknown currency code '%s'", apperrors.ErrValidation, code)
	}
	return c, nil
}

// SupportedCurrencies returns the currencies the upstream source can quote,
// in a stable order.
func SupportedCurrencies() []Currency {
	return []Currency{USD, EUR, JPY, CNY, GBP}
}

// ListCurrencies returns every known currency including the reference currency.
func ListCurrencies() []Currency {
	return []Currency{USD, EUR, JPY, CNY, GBP, KRW}
}

// IsSupported reports whether the upstream source quotes this currency.
// KRW is the reference currency and has no upstream instrument code.
func (c Currency) IsSupported() bool {
	return c.BokCode != ""
}

// IsReference reports whether this is the reference currency (KRW).
func (c Currency) IsReference() bool {
	return c.Code == KRW.Code
}

// NormalizeUpstreamRate converts an upstream quote to domain units
// (1 foreign unit = X KRW). JPY is quoted per 100 yen upstream and must be
// divided down.
func (c Currency) NormalizeUpstreamRate(quote decimal.Decimal) decimal.Decimal {
	if c.QuotingUnits <= 1 {
		return quote
	}
	return quote.DivRound(decimal.NewFromInt(c.QuotingUnits), RatePrecision)
}

// CurrencyPair is an ordered (base, target) pair.
type CurrencyPair struct {
	Base   Currency
	Target Currency
}

// NewCurrencyPair builds a pair, rejecting identical base and target.
func NewCurrencyPair(base, target Currency) (CurrencyPair, error) {
	if base.Code == target.Code {
		return CurrencyPair{}, fmt.Errorf("%w: base and target currencies cannot be the same", apperrors.ErrValidation)
	}
	return CurrencyPair{Base: base, Target: target}, nil
}

// PairCode returns the display code, e.g. "USD/KRW".
func (p CurrencyPair) PairCode() string {
	return p.Base.Code + "/" + p.Target.Code
}

// Reverse swaps base and target.
func (p CurrencyPair) Reverse() CurrencyPair {
	return CurrencyPair{Base: p.Target, Target: p.Base}
}
