package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/cashflow-ledger/internal/testutil"
)

func TestIdempotencyRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()
	now := time.Now()

	got, err := repo.Get(ctx, "key-1", "scope-a")
	require.NoError(t, err)
	assert.Nil(t, got)

	entry := &IdempotencyEntry{
		Key:          "key-1",
		Scope:        "scope-a",
		RequestHash:  "abc",
		StatusCode:   200,
		ResponseBody: []byte(`{"mode":"append"}`),
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	require.NoError(t, repo.Set(ctx, entry))

	got, err = repo.Get(ctx, "key-1", "scope-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.RequestHash)
	assert.Equal(t, 200, got.StatusCode)
	assert.JSONEq(t, `{"mode":"append"}`, string(got.ResponseBody))

	other, err := repo.Get(ctx, "key-1", "scope-b")
	require.NoError(t, err)
	assert.Nil(t, other, "keys are per scope")

	// a live entry is never overwritten
	second := *entry
	second.RequestHash = "def"
	require.NoError(t, repo.Set(ctx, &second))
	got, err = repo.Get(ctx, "key-1", "scope-a")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.RequestHash)
}

func TestIdempotencyRepository_Expiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()
	past := time.Now().Add(-2 * time.Hour)

	require.NoError(t, repo.Set(ctx, &IdempotencyEntry{
		Key: "old", Scope: "s", RequestHash: "h", StatusCode: 200,
		ResponseBody: []byte("{}"), CreatedAt: past, ExpiresAt: past.Add(time.Hour),
	}))

	got, err := repo.Get(ctx, "old", "s")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entries are invisible")

	n, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
