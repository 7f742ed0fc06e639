package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// RawPostStore is an in-memory implementation of storage.RawPostStore.
// Referential integrity against the author store is enforced so that
// tests exercise the same write-ordering contract as PostgreSQL.
type RawPostStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.RawPost // keyed by post_id
	authors *AuthorStore               // optional FK check
}

// NewRawPostStore creates a new in-memory raw post store. A nil author
// store disables the foreign key check.
func NewRawPostStore(authors *AuthorStore) *RawPostStore {
	return &RawPostStore{
		data:    make(map[string]*domain.RawPost),
		authors: authors,
	}
}

// Compile-time interface check.
var _ storage.RawPostStore = (*RawPostStore)(nil)

// UpsertBulk inserts posts, refreshing engagement counters on conflict.
func (s *RawPostStore) UpsertBulk(ctx context.Context, posts []*domain.RawPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range posts {
		if p == nil || p.PostID == "" {
			return storage.ErrInvalidInput
		}
		if s.authors != nil {
			if _, err := s.authors.GetByID(ctx, p.AuthorID); err != nil {
				return storage.ErrInvalidInput
			}
		}
		if existing, ok := s.data[p.PostID]; ok {
			existing.RetweetCount = p.RetweetCount
			existing.ReplyCount = p.ReplyCount
			existing.LikeCount = p.LikeCount
			existing.QuoteCount = p.QuoteCount
			continue
		}
		postCopy := *p
		s.data[p.PostID] = &postCopy
	}
	return nil
}

// GetByID retrieves a post. Returns ErrNotFound if not exists.
func (s *RawPostStore) GetByID(_ context.Context, postID string) (*domain.RawPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[postID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	postCopy := *p
	return &postCopy, nil
}

// GetCreatedSince retrieves posts created at or after since, ordered by
// created_at ASC, post id ASC.
func (s *RawPostStore) GetCreatedSince(_ context.Context, since time.Time) ([]*domain.RawPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawPost
	for _, p := range s.data {
		if !p.CreatedAt.Before(since) {
			postCopy := *p
			result = append(result, &postCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].PostID < result[j].PostID
	})

	return result, nil
}

// Count returns the number of distinct posts.
func (s *RawPostStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}
