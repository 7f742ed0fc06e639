package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

// HourlyBarStore is an in-memory implementation of storage.HourlyBarStore.
type HourlyBarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.HourlyBar // keyed by timestamp truncated to the hour
}

// NewHourlyBarStore creates a new in-memory hourly bar store.
func NewHourlyBarStore() *HourlyBarStore {
	return &HourlyBarStore{
		data: make(map[string]*domain.HourlyBar),
	}
}

// Compile-time interface check.
var _ storage.HourlyBarStore = (*HourlyBarStore)(nil)

func hourKey(t time.Time) string {
	return t.UTC().Format("2006-01-02 15")
}

// UpsertBulk inserts bars, overwriting all value columns on conflict.
func (s *HourlyBarStore) UpsertBulk(_ context.Context, bars []*domain.HourlyBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range bars {
		if b == nil || b.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
		barCopy := *b
		s.data[hourKey(b.Timestamp)] = &barCopy
	}
	return nil
}

// GetAll retrieves all bars ordered by timestamp ASC.
func (s *HourlyBarStore) GetAll(_ context.Context) ([]*domain.HourlyBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.HourlyBar, 0, len(s.data))
	for _, b := range s.data {
		barCopy := *b
		result = append(result, &barCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}
