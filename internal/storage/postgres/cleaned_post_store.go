package postgres

import (
	"context"
	"fmt"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// CleanedPostStore implements storage.CleanedPostStore using PostgreSQL.
type CleanedPostStore struct {
	pool *Pool
}

// NewCleanedPostStore creates a new CleanedPostStore.
func NewCleanedPostStore(pool *Pool) *CleanedPostStore {
	return &CleanedPostStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CleanedPostStore = (*CleanedPostStore)(nil)

// InsertBulk adds cleaned posts atomically, ignoring conflicts by post id.
func (s *CleanedPostStore) InsertBulk(ctx context.Context, posts []*domain.CleanedPost) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cleaned_posts (
			post_id, cleaned_text, vader_compound, tb_polarity, tb_subjectivity
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (post_id) DO NOTHING
	`

	for _, p := range posts {
		if p == nil || p.PostID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			p.PostID,
			p.NormalizedText,
			p.VaderCompound,
			p.Polarity,
			p.Subjectivity,
		)
		if err != nil {
			if isForeignKeyError(err) {
				return storage.ErrInvalidInput
			}
			return fmt.Errorf("insert cleaned post: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByPostID retrieves a cleaned post. Returns ErrNotFound if not exists.
func (s *CleanedPostStore) GetByPostID(ctx context.Context, postID string) (*domain.CleanedPost, error) {
	query := `
		SELECT post_id, cleaned_text, vader_compound, tb_polarity, tb_subjectivity
		FROM cleaned_posts
		WHERE post_id = $1
	`

	var p domain.CleanedPost
	err := s.pool.QueryRow(ctx, query, postID).Scan(
		&p.PostID,
		&p.NormalizedText,
		&p.VaderCompound,
		&p.Polarity,
		&p.Subjectivity,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cleaned post by id: %w", err)
	}

	return &p, nil
}

// GetScored joins cleaned posts with their raw columns, ordered by
// created_at ASC, post id ASC.
func (s *CleanedPostStore) GetScored(ctx context.Context) ([]*domain.ScoredPost, error) {
	query := `
		SELECT cp.post_id, rp.post_created, rp.author_id, rp.conversation_id,
		       cp.vader_compound, cp.tb_polarity, cp.tb_subjectivity
		FROM cleaned_posts cp
		JOIN raw_posts rp ON rp.post_id = cp.post_id
		ORDER BY rp.post_created ASC, cp.post_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get scored posts: %w", err)
	}
	defer rows.Close()

	var result []*domain.ScoredPost
	for rows.Next() {
		var p domain.ScoredPost
		err := rows.Scan(
			&p.PostID,
			&p.CreatedAt,
			&p.AuthorID,
			&p.ConversationID,
			&p.VaderCompound,
			&p.Polarity,
			&p.Subjectivity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scored post: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scored posts: %w", err)
	}

	return result, nil
}
