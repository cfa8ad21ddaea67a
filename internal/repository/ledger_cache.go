package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
)

const ledgerKeyPrefix = "ledger:"

var errCacheMiss = errors.New("cache miss")

// ledgerPersister is satisfied by *LedgerRepository.
type ledgerPersister interface {
	Load(ctx context.Context, scope string) (domain.Ledger, error)
	Save(ctx context.Context, scope string, l domain.Ledger) error
}

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedLedgerRepository reads ledgers through Redis and writes through to
// Postgres. The cache is best effort: any Redis error falls back to the
// database and is only logged.
type CachedLedgerRepository struct {
	next    ledgerPersister
	kv      kvStore
	ttl     time.Duration
	metrics metrics.Recorder
}

func NewCachedLedgerRepository(next ledgerPersister, kv kvStore, ttl time.Duration, rec metrics.Recorder) *CachedLedgerRepository {
	if rec == nil {
		rec = metrics.NoOp{}
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedLedgerRepository{next: next, kv: kv, ttl: ttl, metrics: rec}
}

func (c *CachedLedgerRepository) Load(ctx context.Context, scope string) (domain.Ledger, error) {
	log := logging.FromContext(ctx)
	key := ledgerKeyPrefix + scope

	data, err := c.kv.Get(ctx, key)
	if err == nil {
		var l domain.Ledger
		jerr := json.Unmarshal(data, &l)
		if jerr == nil {
			c.metrics.RecordCacheLookup(true)
			return l, nil
		}
		log.Warn("discarding unreadable cached ledger", "scope", scope, "error", jerr)
	} else if !errors.Is(err, errCacheMiss) {
		log.Warn("ledger cache read failed", "scope", scope, "error", err)
	}
	c.metrics.RecordCacheLookup(false)

	l, err := c.next.Load(ctx, scope)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("CachedLedgerRepository.Load: %w", err)
	}
	c.store(ctx, key, l)
	return l, nil
}

// Save drops the cached copy before writing so a failed cache update can
// never serve data older than Postgres.
func (c *CachedLedgerRepository) Save(ctx context.Context, scope string, l domain.Ledger) error {
	key := ledgerKeyPrefix + scope
	if err := c.kv.Del(ctx, key); err != nil {
		logging.FromContext(ctx).Warn("ledger cache invalidation failed", "scope", scope, "error", err)
	}

	if err := c.next.Save(ctx, scope, l); err != nil {
		return fmt.Errorf("CachedLedgerRepository.Save: %w", err)
	}
	c.store(ctx, key, l)
	return nil
}

func (c *CachedLedgerRepository) store(ctx context.Context, key string, l domain.Ledger) {
	// NaN encodes as null and would come back as zero.
	if l.HasNonFinite() {
		logging.FromContext(ctx).Debug("ledger not cacheable, non-finite amounts", "key", key)
		return
	}
	data, err := json.Marshal(l)
	if err != nil {
		logging.FromContext(ctx).Debug("ledger not cacheable", "key", key, "error", err)
		return
	}
	if err := c.kv.Set(ctx, key, data, c.ttl); err != nil {
		logging.FromContext(ctx).Warn("ledger cache write failed", "key", key, "error", err)
	}
}

// RedisKV adapts a rueidis client to the cache.
type RedisKV struct {
	client rueidis.Client
}

func NewRedisKV(ctx context.Context, addr, password string) (*RedisKV, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("NewRedisKV: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisKV: ping: %w", err)
	}
	return &RedisKV{client: client}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	resp := r.client.Do(ctx, r.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, errCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	data, err := resp.AsBytes()
	if err != nil {
		return nil, fmt.Errorf("redis get: read: %w", err)
	}
	return data, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := r.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisKV) Del(ctx context.Context, key string) error {
	if err := r.client.Do(ctx, r.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Do(ctx, r.client.B().Ping().Build()).Error()
}

func (r *RedisKV) Close() {
	r.client.Close()
}
