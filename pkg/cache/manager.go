package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// LoadFunc produces the payload to cache on a miss.
type LoadFunc func(ctx context.Context) ([]byte, error)

// Manager is a Redis-backed response cache. Concurrent loads of one key
// within a process are coalesced.
type Manager struct {
	redis   *redis.Client
	loading singleflight.Group
}

// NewManager creates a cache over redisClient.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{redis: redisClient}
}

// Get returns the entry stored under key, or ErrCacheMiss when there is
// none or it has expired.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	raw, err := m.redis.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		CacheMisses.WithLabelValues(key.Endpoint).Inc()
		return nil, ErrCacheMiss
	case err != nil:
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	entry := &Entry{}
	if err := json.Unmarshal(raw, entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis expiry is second-granular; honor the entry's own deadline.
	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.WithLabelValues(key.Endpoint).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(key.Endpoint).Inc()
	return entry, nil
}

// Set stores entry until its Expires time. Expired entries are dropped.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheStoredBytes.Add(float64(len(raw)))
	return nil
}

// Fetch is a read-through lookup. On a miss load is called, its result is
// stored for ttl and returned; cached reports whether the payload came from
// Redis. Callers missing the same key at the same time share one load, run
// with the first caller's ctx. Failed loads are not cached, and a failing
// Redis degrades to calling load.
func (m *Manager) Fetch(ctx context.Context, key Key, ttl time.Duration, load LoadFunc) (data []byte, cached bool, err error) {
	entry, err := m.Get(ctx, key)
	if err == nil {
		return entry.Data, true, nil
	}

	v, err, shared := m.loading.Do(key.String(), func() (any, error) {
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		// A failed store is counted in CacheErrors; the load still succeeded.
		_ = m.Set(ctx, key, NewEntry(data, ttl))
		return data, nil
	})
	if shared {
		CacheSharedLoads.WithLabelValues(key.Endpoint).Inc()
	}
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// InvalidateEndpoint drops every entry cached for one endpoint and returns
// how many were removed.
func (m *Manager) InvalidateEndpoint(ctx context.Context, endpoint string) (int, error) {
	removed := 0
	iter := m.redis.Scan(ctx, 0, endpointPattern(endpoint), 100).Iterator()
	for iter.Next(ctx) {
		n, err := m.redis.Del(ctx, iter.Val()).Result()
		if err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			return removed, fmt.Errorf("redis del: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("scan").Inc()
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	return removed, nil
}
