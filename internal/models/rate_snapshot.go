package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSnapshot is the database row shape for one persisted rate observation.
// Rows are append-only; intraday history accumulates as additional rows.
type RateSnapshot struct {
	SnapshotID   string          `json:"snapshotID"`   // Primary Key (UUID)
	CurrencyCode string          `json:"currencyCode"` // e.g. "USD"
	Rate         decimal.Decimal `json:"rate"`         // 1 unit in KRW, scale 4
	Change       decimal.Decimal `json:"change"`       // absolute change vs prior snapshot
	Timestamp    time.Time       `json:"timestamp"`
}
