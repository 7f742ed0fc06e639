package postgres

import (
	"context"
	"fmt"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// AuthorStore implements storage.AuthorStore using PostgreSQL.
type AuthorStore struct {
	pool *Pool
}

// NewAuthorStore creates a new AuthorStore.
func NewAuthorStore(pool *Pool) *AuthorStore {
	return &AuthorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AuthorStore = (*AuthorStore)(nil)

// UpsertBulk inserts authors atomically, refreshing counter columns on
// conflict by account id.
func (s *AuthorStore) UpsertBulk(ctx context.Context, authors []*domain.Author) error {
	if len(authors) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO authors (
			account_id, account_created, display_name, verified,
			follower_count, following_count, post_count, listed_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id) DO UPDATE SET
			verified = EXCLUDED.verified,
			follower_count = EXCLUDED.follower_count,
			following_count = EXCLUDED.following_count,
			post_count = EXCLUDED.post_count,
			listed_count = EXCLUDED.listed_count
	`

	for _, a := range authors {
		if a == nil || a.AccountID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			a.AccountID,
			a.CreatedAt,
			a.DisplayName,
			a.Verified,
			a.FollowerCount,
			a.FollowingCount,
			a.PostCount,
			a.ListedCount,
		)
		if err != nil {
			return fmt.Errorf("upsert author: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves an author. Returns ErrNotFound if not exists.
func (s *AuthorStore) GetByID(ctx context.Context, accountID string) (*domain.Author, error) {
	query := `
		SELECT account_id, account_created, display_name, verified,
		       follower_count, following_count, post_count, listed_count
		FROM authors
		WHERE account_id = $1
	`

	var a domain.Author
	err := s.pool.QueryRow(ctx, query, accountID).Scan(
		&a.AccountID,
		&a.CreatedAt,
		&a.DisplayName,
		&a.Verified,
		&a.FollowerCount,
		&a.FollowingCount,
		&a.PostCount,
		&a.ListedCount,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get author by id: %w", err)
	}

	return &a, nil
}

// Count returns the number of distinct authors.
func (s *AuthorStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM authors`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count authors: %w", err)
	}
	return count, nil
}
