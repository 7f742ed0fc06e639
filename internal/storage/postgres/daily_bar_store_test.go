package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btc-sentiment-lab/internal/domain"
)

func TestDailyBarStore_UpsertAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDailyBarStore(pool)

	bars := []*domain.DailyBar{
		{Date: time.Date(2021, 2, 2, 0, 0, 0, 0, time.UTC), Open: 105, High: 120, Low: 100, Close: 115, AdjClose: 115, Volume: 2000},
		{Date: time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC), Open: 100, High: 110, Low: 95, Close: 105, AdjClose: 105, Volume: 1000},
	}
	err := store.UpsertBulk(ctx, bars)
	require.NoError(t, err)

	got, err := store.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Before(got[1].Date))
	assert.InDelta(t, 105.0, got[0].Close, 0.0001)
	assert.InDelta(t, 115.0, got[1].Close, 0.0001)
}

func TestDailyBarStore_ConflictKeepsFirstWrite(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDailyBarStore(pool)
	date := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)

	err := store.UpsertBulk(ctx, []*domain.DailyBar{{Date: date, Close: 105}})
	require.NoError(t, err)
	err = store.UpsertBulk(ctx, []*domain.DailyBar{{Date: date, Close: 999}})
	require.NoError(t, err)

	got, err := store.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.InDelta(t, 105.0, got[0].Close, 0.0001)
}
