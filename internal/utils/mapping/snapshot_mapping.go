package mapping

import (
	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/fxnow/fxnow/internal/models"
)

// ToModelRateSnapshot converts a domain RateSnapshot to a model RateSnapshot.
func ToModelRateSnapshot(d domain.RateSnapshot) models.RateSnapshot {
	return models.RateSnapshot{
		SnapshotID:   d.SnapshotID,
		CurrencyCode: d.Currency.Code,
		Rate:         d.Rate,
		Change:       d.Change,
		Timestamp:    d.Timestamp,
	}
}

// ToDomainRateSnapshot converts a model RateSnapshot to a domain RateSnapshot.
// Unknown currency codes cannot appear here because rows are only written for
// parsed currencies, but the error is propagated anyway.
func ToDomainRateSnapshot(m models.RateSnapshot) (domain.RateSnapshot, error) {
	currency, err := domain.ParseCurrency(m.CurrencyCode)
	if err != nil {
		return domain.RateSnapshot{}, err
	}
	return domain.RateSnapshot{
		SnapshotID: m.SnapshotID,
		Currency:   currency,
		Rate:       m.Rate,
		Change:     m.Change,
		Timestamp:  m.Timestamp,
	}, nil
}
