// Package cachemanager holds short-lived client-side caches. The search
// service's column lists are fetched through it so repeated CLI calls and
// reloads do not hit the server.
package cachemanager

import (
	"context"
	"time"
)

type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
}

// Observer is told about every lookup. metrics.Registry implements it.
type Observer interface {
	CacheHit(name string)
	CacheMiss(name string)
}
