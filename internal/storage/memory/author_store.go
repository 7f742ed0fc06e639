package memory

import (
	"context"
	"sync"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// AuthorStore is an in-memory implementation of storage.AuthorStore.
type AuthorStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Author // keyed by account_id
}

// NewAuthorStore creates a new in-memory author store.
func NewAuthorStore() *AuthorStore {
	return &AuthorStore{
		data: make(map[string]*domain.Author),
	}
}

// Compile-time interface check.
var _ storage.AuthorStore = (*AuthorStore)(nil)

// UpsertBulk inserts authors, refreshing counter columns on conflict.
func (s *AuthorStore) UpsertBulk(_ context.Context, authors []*domain.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range authors {
		if a == nil || a.AccountID == "" {
			return storage.ErrInvalidInput
		}
		if existing, ok := s.data[a.AccountID]; ok {
			existing.Verified = a.Verified
			existing.FollowerCount = a.FollowerCount
			existing.FollowingCount = a.FollowingCount
			existing.PostCount = a.PostCount
			existing.ListedCount = a.ListedCount
			continue
		}
		authorCopy := *a
		s.data[a.AccountID] = &authorCopy
	}
	return nil
}

// GetByID retrieves an author. Returns ErrNotFound if not exists.
func (s *AuthorStore) GetByID(_ context.Context, accountID string) (*domain.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[accountID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	authorCopy := *a
	return &authorCopy, nil
}

// Count returns the number of distinct authors.
func (s *AuthorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}
