// Package cache is an in-process TTL cache keyed by request parameters.
// Values are recomputable, so a stale or duplicated write only costs a
// redundant recomputation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"conversation-insights-go/internal/logger"
	"conversation-insights-go/internal/metrics"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

type Cache struct {
	mu    sync.Mutex
	items map[string]entry
	group singleflight.Group
	now   func() time.Time
	log   *logger.Logger
}

func New() *Cache {
	return &Cache{
		items: map[string]entry{},
		now:   time.Now,
		log:   logger.New(),
	}
}

// WithClock replaces the time source; used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Key derives a cache key from a prefix and a deterministic hash of params.
func Key(prefix string, params any) string {
	if params == nil {
		return prefix
	}
	b, err := json.Marshal(params)
	if err != nil {
		return prefix
	}
	sum := sha256.Sum256(b)
	return prefix + "_" + hex.EncodeToString(sum[:])[:8]
}

// Lookup returns a live value for key.
func (c *Cache) Lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.items, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = entry{value: value, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
	c.log.WithField("key", key).Debug("cache set")
}

// Get returns the cached value for key, or runs producer and caches its result
// for ttl. Concurrent misses on the same key share one producer call, which is
// detached from the caller's cancellation. Producer errors are returned and not
// cached.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Lookup(key); ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		c.log.WithField("key", key).Debug("cache hit")
		return v, nil
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()
	c.log.WithField("key", key).Debug("cache miss")

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Lookup(key); ok {
			return v, nil
		}
		// the shared call outlives any single caller's cancellation
		v, err := producer(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	return v, err
}

// Fetch is a typed wrapper around Get.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return producer(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	c.log.WithField("key", key).Info("cache invalidated")
}

// InvalidatePrefix drops every key starting with prefix and returns how many.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	c.mu.Unlock()
	c.log.WithField("prefix", prefix).WithField("keys", n).Info("cache invalidated by prefix")
	return n
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = map[string]entry{}
	c.mu.Unlock()
	c.log.Info("all cache invalidated")
}

type Stats struct {
	TotalKeys   int `json:"total_keys"`
	ActiveKeys  int `json:"active_count"`
	ExpiredKeys int `json:"expired_count"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	s := Stats{TotalKeys: len(c.items)}
	for _, e := range c.items {
		if e.expired(now) {
			s.ExpiredKeys++
		}
	}
	s.ActiveKeys = s.TotalKeys - s.ExpiredKeys
	return s
}
