package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// RawPostStore implements storage.RawPostStore using PostgreSQL.
type RawPostStore struct {
	pool *Pool
}

// NewRawPostStore creates a new RawPostStore.
func NewRawPostStore(pool *Pool) *RawPostStore {
	return &RawPostStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RawPostStore = (*RawPostStore)(nil)

// UpsertBulk inserts posts atomically, refreshing engagement counters on
// conflict by post id. Posts referencing unknown authors fail the batch
// with ErrInvalidInput: authors must be written first.
func (s *RawPostStore) UpsertBulk(ctx context.Context, posts []*domain.RawPost) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO raw_posts (
			post_id, post_created, conversation_id, author_id, post_text,
			retweet_count, reply_count, like_count, quote_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (post_id) DO UPDATE SET
			retweet_count = EXCLUDED.retweet_count,
			reply_count = EXCLUDED.reply_count,
			like_count = EXCLUDED.like_count,
			quote_count = EXCLUDED.quote_count
	`

	for _, p := range posts {
		if p == nil || p.PostID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			p.PostID,
			p.CreatedAt,
			p.ConversationID,
			p.AuthorID,
			p.Text,
			p.RetweetCount,
			p.ReplyCount,
			p.LikeCount,
			p.QuoteCount,
		)
		if err != nil {
			if isForeignKeyError(err) {
				return storage.ErrInvalidInput
			}
			return fmt.Errorf("upsert raw post: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a post. Returns ErrNotFound if not exists.
func (s *RawPostStore) GetByID(ctx context.Context, postID string) (*domain.RawPost, error) {
	query := selectRawPosts + ` WHERE post_id = $1`

	var p domain.RawPost
	err := s.pool.QueryRow(ctx, query, postID).Scan(
		&p.PostID,
		&p.CreatedAt,
		&p.ConversationID,
		&p.AuthorID,
		&p.Text,
		&p.RetweetCount,
		&p.ReplyCount,
		&p.LikeCount,
		&p.QuoteCount,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get raw post by id: %w", err)
	}

	return &p, nil
}

// GetCreatedSince retrieves posts created at or after since, ordered by
// created_at ASC, post id ASC.
func (s *RawPostStore) GetCreatedSince(ctx context.Context, since time.Time) ([]*domain.RawPost, error) {
	query := selectRawPosts + ` WHERE post_created >= $1 ORDER BY post_created ASC, post_id ASC`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("get raw posts created since: %w", err)
	}
	defer rows.Close()

	return scanRawPosts(rows)
}

// Count returns the number of distinct posts.
func (s *RawPostStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM raw_posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count raw posts: %w", err)
	}
	return count, nil
}

const selectRawPosts = `
	SELECT post_id, post_created, conversation_id, author_id, post_text,
	       retweet_count, reply_count, like_count, quote_count
	FROM raw_posts`

func scanRawPosts(rows pgx.Rows) ([]*domain.RawPost, error) {
	var result []*domain.RawPost
	for rows.Next() {
		var p domain.RawPost
		err := rows.Scan(
			&p.PostID,
			&p.CreatedAt,
			&p.ConversationID,
			&p.AuthorID,
			&p.Text,
			&p.RetweetCount,
			&p.ReplyCount,
			&p.LikeCount,
			&p.QuoteCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan raw post: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw posts: %w", err)
	}
	return result, nil
}
