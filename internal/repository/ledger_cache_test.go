package repository

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
	"github.com/josh-kwaku/cashflow-ledger/internal/store"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failAll error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	v, ok := f.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	delete(f.data, key)
	return nil
}

type cacheRecorder struct {
	metrics.NoOp
	hits, misses int
}

func (c *cacheRecorder) RecordCacheLookup(hit bool) {
	if hit {
		c.hits++
		return
	}
	c.misses++
}

var cachedLedger = domain.Ledger{
	Assets: []domain.Asset{
		{ID: "a1", Name: "Rental Property #1", Type: domain.AssetTypeRealEstate, PurchaseDate: domain.MustParseDate("2020-01-15"), CurrentValue: 250000},
	},
	Liabilities:  []domain.Liability{{ID: "l1", Name: "Mortgage", Type: domain.LiabilityTypeMortgage, OutstandingBalance: 160000}},
	Transactions: []domain.Transaction{{ID: "t1", Date: domain.MustParseDate("2023-10-01"), Description: "Salary", Amount: 5000, Type: domain.TransactionTypeIncome}},
}

func TestCachedLedger_LoadMissThenHit(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryPersister()
	require.NoError(t, db.Save(ctx, "u1", cachedLedger))
	kv := newFakeKV()
	rec := &cacheRecorder{}
	c := NewCachedLedgerRepository(db, kv, time.Minute, rec)

	first, err := c.Load(ctx, "u1")
	require.NoError(t, err)
	second, err := c.Load(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, db.Loads(), "second load is served from cache")
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, first.Assets[0].PurchaseDate, second.Assets[0].PurchaseDate)
	assert.Equal(t, "Salary", second.Transactions[0].Description)
	assert.Equal(t, time.Minute, kv.ttls["ledger:u1"])
}

func TestCachedLedger_SaveRefreshesCache(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryPersister()
	kv := newFakeKV()
	c := NewCachedLedgerRepository(db, kv, 0, nil)

	_, err := c.Load(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx, "u1", cachedLedger))

	l, err := c.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, l.Assets, 1)
	assert.Equal(t, 1, db.Loads())
	assert.Equal(t, 10*time.Minute, kv.ttls["ledger:u1"])
}

func TestCachedLedger_FailedSaveLeavesNoStaleEntry(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryPersister()
	require.NoError(t, db.Save(ctx, "u1", cachedLedger))
	kv := newFakeKV()
	c := NewCachedLedgerRepository(db, kv, time.Minute, nil)

	_, err := c.Load(ctx, "u1")
	require.NoError(t, err)

	db.SaveErr = errors.New("deadlock detected")
	err = c.Save(ctx, "u1", domain.Ledger{})
	require.Error(t, err)

	_, cached := kv.data["ledger:u1"]
	assert.False(t, cached)
}

func TestCachedLedger_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryPersister()
	require.NoError(t, db.Save(ctx, "u1", cachedLedger))
	kv := newFakeKV()
	kv.failAll = errors.New("dial tcp: connection refused")
	c := NewCachedLedgerRepository(db, kv, time.Minute, nil)

	l, err := c.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, l.Assets, 1)

	require.NoError(t, c.Save(ctx, "u1", domain.Ledger{}))
	stored, _ := db.Stored("u1")
	assert.True(t, stored.IsEmpty())
}

func TestCachedLedger_CorruptEntryIgnored(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryPersister()
	require.NoError(t, db.Save(ctx, "u1", cachedLedger))
	kv := newFakeKV()
	kv.data["ledger:u1"] = []byte("{not json")
	c := NewCachedLedgerRepository(db, kv, time.Minute, nil)

	l, err := c.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, l.Transactions, 1)
	assert.Equal(t, 1, db.Loads())
}

func TestCachedLedger_NaNLedgerNotCached(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	c := NewCachedLedgerRepository(store.NewMemoryPersister(), kv, time.Minute, nil)

	err := c.Save(ctx, "u1", domain.Ledger{Transactions: []domain.Transaction{{ID: "t1", Amount: math.NaN()}}})
	require.NoError(t, err)
	assert.Empty(t, kv.data)
}
