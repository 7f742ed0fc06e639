package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// DailyBarStore is an in-memory implementation of storage.DailyBarStore.
type DailyBarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailyBar // keyed by date (calendar day)
}

// NewDailyBarStore creates a new in-memory daily bar store.
func NewDailyBarStore() *DailyBarStore {
	return &DailyBarStore{
		data: make(map[string]*domain.DailyBar),
	}
}

// Compile-time interface check.
var _ storage.DailyBarStore = (*DailyBarStore)(nil)

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// UpsertBulk inserts bars; conflicts by date are ignored.
func (s *DailyBarStore) UpsertBulk(_ context.Context, bars []*domain.DailyBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range bars {
		if b == nil || b.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := dayKey(b.Date)
		if _, ok := s.data[key]; ok {
			continue // daily bars are immutable once written
		}
		barCopy := *b
		s.data[key] = &barCopy
	}
	return nil
}

// GetAll retrieves all bars ordered by date ASC.
func (s *DailyBarStore) GetAll(_ context.Context) ([]*domain.DailyBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DailyBar, 0, len(s.data))
	for _, b := range s.data {
		barCopy := *b
		result = append(result, &barCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}
