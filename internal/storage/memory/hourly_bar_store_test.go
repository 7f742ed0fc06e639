package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

func TestHourlyBarStore_UpsertAndGetAll(t *testing.T) {
	store := NewHourlyBarStore()
	ctx := context.Background()

	bars := []*domain.HourlyBar{
		{Timestamp: time.Date(2021, 2, 1, 10, 0, 0, 0, time.UTC), Close: 102},
		{Timestamp: time.Date(2021, 2, 1, 9, 0, 0, 0, time.UTC), Close: 100},
	}
	if err := store.UpsertBulk(ctx, bars); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Got %d bars, want 2", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Errorf("Bars not ordered by timestamp: %v then %v", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestHourlyBarStore_ConflictOverwrites(t *testing.T) {
	store := NewHourlyBarStore()
	ctx := context.Background()
	ts := time.Date(2021, 2, 1, 9, 0, 0, 0, time.UTC)

	if err := store.UpsertBulk(ctx, []*domain.HourlyBar{{Timestamp: ts, Close: 100}}); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	// Intraday revision of the same hour replaces the stored values.
	if err := store.UpsertBulk(ctx, []*domain.HourlyBar{{Timestamp: ts, Close: 104}}); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Got %d bars, want 1", len(got))
	}
	if got[0].Close != 104 {
		t.Errorf("Close = %v, want 104 after revision", got[0].Close)
	}
}

func TestHourlyBarStore_InvalidInput(t *testing.T) {
	store := NewHourlyBarStore()

	err := store.UpsertBulk(context.Background(), []*domain.HourlyBar{{}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero timestamp, got %v", err)
	}
}
