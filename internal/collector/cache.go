package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"ETFDesk/internal/metrics"
	"ETFDesk/internal/model"

	"github.com/dgraph-io/ristretto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheEntry is one cached history response.
type CacheEntry struct {
	Bars      []model.DailyBar `json:"bars"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// BarStore is the backing store of CachedHistory.
type BarStore interface {
	Get(ctx context.Context, key string) (*CacheEntry, bool, error)
	Set(ctx context.Context, key string, e *CacheEntry, ttl time.Duration) error
	Close() error
}

// CachedHistory puts a time-windowed cache in front of a HistoryFetcher.
// Entries are keyed by instrument code and adjustment mode and are only
// dropped by expiry. A TTL <= 0 disables caching.
type CachedHistory struct {
	Next  HistoryFetcher
	Store BarStore
	TTL   time.Duration
	Now   func() time.Time
}

// NewCachedHistory wraps next with store.
func NewCachedHistory(next HistoryFetcher, store BarStore, ttl time.Duration) *CachedHistory {
	return &CachedHistory{Next: next, Store: store, TTL: ttl, Now: time.Now}
}

func (c *CachedHistory) Name() string { return c.Next.Name() }

func cacheKey(inst model.Instrument, q model.HistoryQuery) string {
	return inst.Code + "|" + string(q.Adjust)
}

func (c *CachedHistory) FetchDailyBars(ctx context.Context, inst model.Instrument, q model.HistoryQuery) ([]model.DailyBar, error) {
	if c.TTL <= 0 || c.Store == nil {
		return c.Next.FetchDailyBars(ctx, inst, q)
	}
	key := cacheKey(inst, q)

	e, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		zap.L().Warn("history cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok && c.Now().Sub(e.FetchedAt) < c.TTL {
		metrics.HistoryCache.WithLabelValues("hit").Inc()
		return slices.Clone(e.Bars), nil
	}
	metrics.HistoryCache.WithLabelValues("miss").Inc()

	bars, err := c.Next.FetchDailyBars(ctx, inst, q)
	if err != nil {
		return nil, err
	}
	entry := &CacheEntry{Bars: slices.Clone(bars), FetchedAt: c.Now()}
	if err := c.Store.Set(ctx, key, entry, c.TTL); err != nil {
		zap.L().Warn("history cache write failed", zap.String("key", key), zap.Error(err))
	}
	return bars, nil
}

// MemoryStore is a process-local BarStore.
type MemoryStore struct {
	cache *ristretto.Cache
}

// NewMemoryStore creates a ristretto-backed store sized for a few hundred instruments.
func NewMemoryStore() (*MemoryStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 10,
		BufferItems: 64,
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("new ristretto cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*CacheEntry, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	e, ok := v.(*CacheEntry)
	return e, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, e *CacheEntry, ttl time.Duration) error {
	if !s.cache.SetWithTTL(key, e, 1, ttl) {
		return errors.New("ristretto rejected entry")
	}
	// Sets are buffered; make the entry visible to the next Get.
	s.cache.Wait()
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Close()
	return nil
}

// RedisStore shares cached history between dashboard instances.
type RedisStore struct {
	Client *redis.Client
	Prefix string
}

// NewRedisStore connects lazily to addr.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Prefix: "etfdesk:history:",
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*CacheEntry, bool, error) {
	data, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var e CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return &e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, e *CacheEntry, ttl time.Duration) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return s.Client.Set(ctx, s.Prefix+key, data, ttl).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
