package clickhouse

import (
	"context"
	"fmt"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// BucketArchiveStore implements storage.BucketArchiveStore using ClickHouse.
// Each refresh appends its joined series; ReplacingMergeTree keeps the
// latest row per (account_label, resolution, period_key).
type BucketArchiveStore struct {
	conn *Conn
}

// NewBucketArchiveStore creates a new BucketArchiveStore.
func NewBucketArchiveStore(conn *Conn) *BucketArchiveStore {
	return &BucketArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BucketArchiveStore = (*BucketArchiveStore)(nil)

// InsertBulk appends archive rows as one batch.
func (s *BucketArchiveStore) InsertBulk(ctx context.Context, rows []*domain.BucketArchiveRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bucket_archive (
			account_label, resolution, period_key,
			open_price, high_price, low_price, close_price, volume,
			avg_vader_compound, avg_tb_polarity, avg_tb_subjectivity, post_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare bucket archive batch: %w", err)
	}

	for _, r := range rows {
		if r == nil || r.AccountLabel == "" || r.PeriodKey == "" {
			return storage.ErrInvalidInput
		}
		err := batch.Append(
			r.AccountLabel,
			r.Resolution,
			r.PeriodKey,
			r.Open,
			r.High,
			r.Low,
			r.Close,
			r.Volume,
			r.AvgVaderCompound,
			r.AvgPolarity,
			r.AvgSubjectivity,
			uint32(r.PostCount),
		)
		if err != nil {
			return fmt.Errorf("append bucket archive row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send bucket archive batch: %w", err)
	}

	return nil
}
