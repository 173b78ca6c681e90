package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/geosift/internal/log"
)

const DefaultExpiration = 5 * time.Minute
const DefaultCleanupInterval = 10 * time.Minute

// NewInMemoryCacheManager creates a named cache. name labels log lines and metrics.
func NewInMemoryCacheManager[K ~string, V any](name string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		name:  name,
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// InMemoryCacheManager is a CacheManager over patrickmn/go-cache.
type InMemoryCacheManager[K ~string, V any] struct {
	name     string
	cache    *gocache.Cache
	observer Observer
}

// WithObserver attaches a hit/miss observer and returns the cache.
func (c *InMemoryCacheManager[K, V]) WithObserver(o Observer) *InMemoryCacheManager[K, V] {
	c.observer = o
	return c
}

// Get retrieves an item from the cache by its key
func (c *InMemoryCacheManager[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zeroValue V

	value, found := c.cache.Get(string(key))
	if !found {
		c.miss()
		return zeroValue, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "cache", c.name, "key", key)
		c.miss()
		return zeroValue, false
	}

	log.Debug(log.CatCache, "cache hit", "cache", c.name, "key", key)
	if c.observer != nil {
		c.observer.CacheHit(c.name)
	}
	return v, true
}

// Set stores value under key. A zero ttl uses the cache default.
func (c *InMemoryCacheManager[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(string(key), value, ttl)
}

// Delete removes keys from the cache.
func (c *InMemoryCacheManager[K, V]) Delete(_ context.Context, keys ...K) {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
}

// Flush empties the cache. Used when the server URL changes on reload.
func (c *InMemoryCacheManager[K, V]) Flush(_ context.Context) {
	c.cache.Flush()
	log.Debug(log.CatCache, "cache flushed", "cache", c.name)
}

func (c *InMemoryCacheManager[K, V]) miss() {
	if c.observer != nil {
		c.observer.CacheMiss(c.name)
	}
}
