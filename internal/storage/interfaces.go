package storage

import (
	"context"
	"time"

	"btc-sentiment-lab/internal/domain"
)

// AuthorStore provides access to the authors table.
type AuthorStore interface {
	// UpsertBulk inserts authors, refreshing the mutable counter columns
	// on conflict by account id. Authors are never deleted.
	UpsertBulk(ctx context.Context, authors []*domain.Author) error

	// GetByID retrieves an author. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, accountID string) (*domain.Author, error)

	// Count returns the number of distinct authors.
	Count(ctx context.Context) (int, error)
}

// RawPostStore provides access to the raw_posts table.
// Referential integrity: every post's author must already exist, so
// callers upsert authors before posts.
type RawPostStore interface {
	// UpsertBulk inserts posts, refreshing engagement counters on
	// conflict by post id. Re-crawling an overlapping window is safe.
	UpsertBulk(ctx context.Context, posts []*domain.RawPost) error

	// GetByID retrieves a post. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, postID string) (*domain.RawPost, error)

	// GetCreatedSince retrieves posts with created_at >= since,
	// ordered by created_at ASC, post id ASC.
	GetCreatedSince(ctx context.Context, since time.Time) ([]*domain.RawPost, error)

	// Count returns the number of distinct posts.
	Count(ctx context.Context) (int, error)
}

// CleanedPostStore provides access to the cleaned_posts table.
type CleanedPostStore interface {
	// InsertBulk adds cleaned posts. Conflicts by post id are ignored:
	// a cleaned post is append-only and never mutated.
	InsertBulk(ctx context.Context, posts []*domain.CleanedPost) error

	// GetByPostID retrieves a cleaned post. Returns ErrNotFound if not exists.
	GetByPostID(ctx context.Context, postID string) (*domain.CleanedPost, error)

	// GetScored returns cleaned posts joined with the raw columns the
	// aggregation engine needs, ordered by created_at ASC, post id ASC.
	GetScored(ctx context.Context) ([]*domain.ScoredPost, error)
}

// DailyBarStore provides access to the daily_bars table.
type DailyBarStore interface {
	// UpsertBulk inserts bars; conflicts by date are ignored (daily bars
	// are immutable once written).
	UpsertBulk(ctx context.Context, bars []*domain.DailyBar) error

	// GetAll retrieves all bars ordered by date ASC.
	GetAll(ctx context.Context) ([]*domain.DailyBar, error)
}

// HourlyBarStore provides access to the hourly_bars table.
type HourlyBarStore interface {
	// UpsertBulk inserts bars, overwriting all value columns on conflict
	// by timestamp (hourly bars may be revised intraday).
	UpsertBulk(ctx context.Context, bars []*domain.HourlyBar) error

	// GetAll retrieves all bars ordered by timestamp ASC.
	GetAll(ctx context.Context) ([]*domain.HourlyBar, error)
}

// BucketArchiveStore appends refresh-time joined series rows to the
// analytics archive.
type BucketArchiveStore interface {
	InsertBulk(ctx context.Context, rows []*domain.BucketArchiveRow) error
}
