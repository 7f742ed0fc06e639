package postgres

import (
	"context"
	"fmt"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// HourlyBarStore implements storage.HourlyBarStore using PostgreSQL.
type HourlyBarStore struct {
	pool *Pool
}

// NewHourlyBarStore creates a new HourlyBarStore.
func NewHourlyBarStore(pool *Pool) *HourlyBarStore {
	return &HourlyBarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HourlyBarStore = (*HourlyBarStore)(nil)

// UpsertBulk inserts bars atomically, overwriting all value columns on
// conflict by timestamp.
func (s *HourlyBarStore) UpsertBulk(ctx context.Context, bars []*domain.HourlyBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO hourly_bars (
			bar_time, open_price, high_price, low_price, close_price, volume_from, volume_to
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (bar_time) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume_from = EXCLUDED.volume_from,
			volume_to = EXCLUDED.volume_to
	`

	for _, b := range bars {
		if b == nil || b.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			b.Timestamp,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.VolumeFrom,
			b.VolumeTo,
		)
		if err != nil {
			return fmt.Errorf("upsert hourly bar: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves all bars ordered by timestamp ASC.
func (s *HourlyBarStore) GetAll(ctx context.Context) ([]*domain.HourlyBar, error) {
	query := `
		SELECT bar_time, open_price, high_price, low_price, close_price, volume_from, volume_to
		FROM hourly_bars
		ORDER BY bar_time ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get hourly bars: %w", err)
	}
	defer rows.Close()

	var result []*domain.HourlyBar
	for rows.Next() {
		var b domain.HourlyBar
		err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.VolumeFrom, &b.VolumeTo)
		if err != nil {
			return nil, fmt.Errorf("scan hourly bar: %w", err)
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hourly bars: %w", err)
	}

	return result, nil
}
