package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxnow/fxnow/internal/apperrors"
	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/fxnow/fxnow/internal/models"
	"github.com/fxnow/fxnow/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRateSnapshotRepository implements the snapshot repository ports using pgxpool.
type PgxRateSnapshotRepository struct {
	db *pgxpool.Pool
}

// NewRateSnapshotRepository creates a new PgxRateSnapshotRepository.
func NewRateSnapshotRepository(db *pgxpool.Pool) *PgxRateSnapshotRepository {
	return &PgxRateSnapshotRepository{db: db}
}

// SaveSnapshot inserts a new snapshot row. Snapshots are append-only: a later
// intraday reading is a new row, never an update of an existing one.
func (r *PgxRateSnapshotRepository) SaveSnapshot(ctx context.Context, snapshot domain.RateSnapshot) error {
	modelSnapshot := mapping.ToModelRateSnapshot(snapshot)

	query := `
		INSERT INTO exchange_rate_history (
			snapshot_id, currency_code, rate, change_amount, recorded_at
		) VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		modelSnapshot.SnapshotID, modelSnapshot.CurrencyCode, modelSnapshot.Rate,
		modelSnapshot.Change, modelSnapshot.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("error inserting rate snapshot: %w", err)
	}
	return nil
}

// FindLatestInRange retrieves the most recent snapshot for a currency with
// from <= recorded_at < to.
func (r *PgxRateSnapshotRepository) FindLatestInRange(ctx context.Context, currency domain.Currency, from, to time.Time) (*domain.RateSnapshot, error) {
	query := `
		SELECT snapshot_id, currency_code, rate, change_amount, recorded_at
		FROM exchange_rate_history
		WHERE currency_code = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	var m models.RateSnapshot
	err := r.db.QueryRow(ctx, query, currency.Code, from, to).Scan(
		&m.SnapshotID, &m.CurrencyCode, &m.Rate, &m.Change, &m.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no snapshot for %s in range", apperrors.ErrNotFound, currency.Code)
		}
		return nil, fmt.Errorf("error finding latest rate snapshot: %w", err)
	}

	snapshot, err := mapping.ToDomainRateSnapshot(m)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// FindByCurrencyAndRange retrieves all snapshots for a currency with
// from <= recorded_at < to, ascending by timestamp. An empty range yields an
// empty slice, not an error.
func (r *PgxRateSnapshotRepository) FindByCurrencyAndRange(ctx context.Context, currency domain.Currency, from, to time.Time) ([]domain.RateSnapshot, error) {
	query := `
		SELECT snapshot_id, currency_code, rate, change_amount, recorded_at
		FROM exchange_rate_history
		WHERE currency_code = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at ASC
	`
	rows, err := r.db.Query(ctx, query, currency.Code, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying rate snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.RateSnapshot{}
	for rows.Next() {
		var m models.RateSnapshot
		if err := rows.Scan(&m.SnapshotID, &m.CurrencyCode, &m.Rate, &m.Change, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning rate snapshot: %w", err)
		}
		snapshot, err := mapping.ToDomainRateSnapshot(m)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rate snapshots: %w", err)
	}

	return snapshots, nil
}
