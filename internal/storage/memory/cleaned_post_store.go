package memory

import (
	"context"
	"sort"
	"sync"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// CleanedPostStore is an in-memory implementation of storage.CleanedPostStore.
type CleanedPostStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.CleanedPost // keyed by post_id
	posts *RawPostStore                  // source of raw columns for GetScored
}

// NewCleanedPostStore creates a new in-memory cleaned post store backed
// by the given raw post store.
func NewCleanedPostStore(posts *RawPostStore) *CleanedPostStore {
	return &CleanedPostStore{
		data:  make(map[string]*domain.CleanedPost),
		posts: posts,
	}
}

// Compile-time interface check.
var _ storage.CleanedPostStore = (*CleanedPostStore)(nil)

// InsertBulk adds cleaned posts, ignoring conflicts by post id.
func (s *CleanedPostStore) InsertBulk(_ context.Context, posts []*domain.CleanedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range posts {
		if p == nil || p.PostID == "" {
			return storage.ErrInvalidInput
		}
		if _, ok := s.data[p.PostID]; ok {
			continue // append-only: first write wins
		}
		postCopy := *p
		s.data[p.PostID] = &postCopy
	}
	return nil
}

// GetByPostID retrieves a cleaned post. Returns ErrNotFound if not exists.
func (s *CleanedPostStore) GetByPostID(_ context.Context, postID string) (*domain.CleanedPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[postID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	postCopy := *p
	return &postCopy, nil
}

// GetScored joins cleaned posts with their raw columns, ordered by
// created_at ASC, post id ASC.
func (s *CleanedPostStore) GetScored(ctx context.Context) ([]*domain.ScoredPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScoredPost
	for id, cp := range s.data {
		raw, err := s.posts.GetByID(ctx, id)
		if err != nil {
			continue // cleaned row without raw row cannot be scored
		}
		result = append(result, &domain.ScoredPost{
			PostID:         id,
			CreatedAt:      raw.CreatedAt,
			AuthorID:       raw.AuthorID,
			ConversationID: raw.ConversationID,
			VaderCompound:  cp.VaderCompound,
			Polarity:       cp.Polarity,
			Subjectivity:   cp.Subjectivity,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].PostID < result[j].PostID
	})

	return result, nil
}
