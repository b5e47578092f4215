package repositories

import (
	"context"
	"time"

	"github.com/fxnow/fxnow/internal/core/domain"
)

// RateSnapshotReader defines read operations for persisted rate snapshots.
type RateSnapshotReader interface {
	// FindLatestInRange retrieves the most recent snapshot for a currency with
	// from <= timestamp < to, or apperrors.ErrNotFound.
	FindLatestInRange(ctx context.Context, currency domain.Currency, from, to time.Time) (*domain.RateSnapshot, error)

	// FindByCurrencyAndRange retrieves all snapshots for a currency with
	// from <= timestamp < to, ascending by timestamp.
	FindByCurrencyAndRange(ctx context.Context, currency domain.Currency, from, to time.Time) ([]domain.RateSnapshot, error)
}

// RateSnapshotWriter defines write operations for persisted rate snapshots.
// Snapshots are append-only; there is no update or delete.
type RateSnapshotWriter interface {
	SaveSnapshot(ctx context.Context, snapshot domain.RateSnapshot) error
}

// RateSnapshotRepositoryFacade combines all snapshot repository interfaces.
type RateSnapshotRepositoryFacade interface {
	RateSnapshotReader
	RateSnapshotWriter
}
