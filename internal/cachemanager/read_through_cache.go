package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache fills a CacheManager from a loader on miss. Loader
// errors are returned as-is and nothing is cached.
type ReadThroughCache[K ~string, V any] struct {
	cache CacheManager[K, V]
	load  func(ctx context.Context, key K) (V, error)
	ttl   time.Duration
	skip  bool
}

func NewReadThroughCache[K ~string, V any](
	cache CacheManager[K, V],
	load func(ctx context.Context, key K) (V, error),
	ttl time.Duration,
	skip bool,
) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{
		cache: cache,
		load:  load,
		ttl:   ttl,
		skip:  skip,
	}
}

func (r *ReadThroughCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if r.skip {
		return r.load(ctx, key)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.load(ctx, key)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, r.ttl)

	return value, nil
}

// Invalidate drops key so the next Get reloads it.
func (r *ReadThroughCache[K, V]) Invalidate(ctx context.Context, key K) {
	r.cache.Delete(ctx, key)
}
