package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btc-sentiment-lab/internal/domain"
	"btc-sentiment-lab/internal/storage"
)

func TestRawPostStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	authorID := createTestAuthor(t, ctx, pool, "acct-1")
	store := NewRawPostStore(pool)

	p := &domain.RawPost{
		PostID:         "post-1",
		CreatedAt:      time.Date(2021, 2, 1, 9, 0, 0, 0, time.UTC),
		ConversationID: "post-1",
		AuthorID:       authorID,
		Text:           "Bitcoin to the moon",
		RetweetCount:   3,
		LikeCount:      25,
	}

	err := store.UpsertBulk(ctx, []*domain.RawPost{p})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "post-1")
	require.NoError(t, err)

	assert.Equal(t, p.Text, got.Text)
	assert.Equal(t, p.ConversationID, got.ConversationID)
	assert.Equal(t, p.AuthorID, got.AuthorID)
	assert.Equal(t, p.LikeCount, got.LikeCount)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
}

func TestRawPostStore_UpsertIsIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	authorID := createTestAuthor(t, ctx, pool, "acct-1")
	store := NewRawPostStore(pool)

	p := &domain.RawPost{
		PostID:    "post-1",
		CreatedAt: time.Date(2021, 2, 1, 9, 0, 0, 0, time.UTC),
		AuthorID:  authorID,
		Text:      "original",
		LikeCount: 1,
	}

	// Re-crawling the same window must not duplicate rows.
	for i := 0; i < 3; i++ {
		err := store.UpsertBulk(ctx, []*domain.RawPost{p})
		require.NoError(t, err)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRawPostStore_UpsertRefreshesEngagement(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	authorID := createTestAuthor(t, ctx, pool, "acct-1")
	store := NewRawPostStore(pool)

	created := time.Date(2021, 2, 1, 9, 0, 0, 0, time.UTC)
	err := store.UpsertBulk(ctx, []*domain.RawPost{{
		PostID: "post-1", CreatedAt: created, AuthorID: authorID, Text: "x", LikeCount: 1,
	}})
	require.NoError(t, err)
	err = store.UpsertBulk(ctx, []*domain.RawPost{{
		PostID: "post-1", CreatedAt: created, AuthorID: authorID, Text: "changed", LikeCount: 9,
	}})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.LikeCount)
	assert.Equal(t, "x", got.Text, "text is immutable on conflict")
}

func TestRawPostStore_MissingAuthorRejected(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRawPostStore(pool)
	err := store.UpsertBulk(context.Background(), []*domain.RawPost{{
		PostID:    "post-1",
		CreatedAt: time.Date(2021, 2, 1, 9, 0, 0, 0, time.UTC),
		AuthorID:  "ghost",
	}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRawPostStore_BatchIsAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	authorID := createTestAuthor(t, ctx, pool, "acct-1")
	store := NewRawPostStore(pool)

	created := time.Date(2021, 2, 1, 9, 0, 0, 0, time.UTC)
	err := store.UpsertBulk(ctx, []*domain.RawPost{
		{PostID: "post-1", CreatedAt: created, AuthorID: authorID},
		{PostID: "post-2", CreatedAt: created, AuthorID: "ghost"},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	// The valid row must have been rolled back with the batch.
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRawPostStore_GetCreatedSince(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	authorID := createTestAuthor(t, ctx, pool, "acct-1")
	store := NewRawPostStore(pool)

	base := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	err := store.UpsertBulk(ctx, []*domain.RawPost{
		{PostID: "post-3", CreatedAt: base.Add(2 * time.Hour), AuthorID: authorID},
		{PostID: "post-1", CreatedAt: base, AuthorID: authorID},
		{PostID: "post-2", CreatedAt: base.Add(time.Hour), AuthorID: authorID},
	})
	require.NoError(t, err)

	got, err := store.GetCreatedSince(ctx, base.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "post-2", got[0].PostID)
	assert.Equal(t, "post-3", got[1].PostID)
}
