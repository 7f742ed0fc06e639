package postgres

import (
	"context"
	"fmt"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// DailyBarStore implements storage.DailyBarStore using PostgreSQL.
type DailyBarStore struct {
	pool *Pool
}

// NewDailyBarStore creates a new DailyBarStore.
func NewDailyBarStore(pool *Pool) *DailyBarStore {
	return &DailyBarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DailyBarStore = (*DailyBarStore)(nil)

// UpsertBulk inserts bars atomically; conflicts by date are ignored.
func (s *DailyBarStore) UpsertBulk(ctx context.Context, bars []*domain.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO daily_bars (
			bar_date, open_price, high_price, low_price, close_price, adj_close_price, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (bar_date) DO NOTHING
	`

	for _, b := range bars {
		if b == nil || b.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			b.Date,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.AdjClose,
			b.Volume,
		)
		if err != nil {
			return fmt.Errorf("upsert daily bar: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves all bars ordered by date ASC.
func (s *DailyBarStore) GetAll(ctx context.Context) ([]*domain.DailyBar, error) {
	query := `
		SELECT bar_date, open_price, high_price, low_price, close_price, adj_close_price, volume
		FROM daily_bars
		ORDER BY bar_date ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get daily bars: %w", err)
	}
	defer rows.Close()

	var result []*domain.DailyBar
	for rows.Next() {
		var b domain.DailyBar
		err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan daily bar: %w", err)
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily bars: %w", err)
	}

	return result, nil
}
