// Package ttlcache provides the bulk-response cache shared by the provider
// adapters. One entry holds a provider payload together with its fetch
// instant; the pair is always replaced as a unit so a reader can never
// observe a timestamp that belongs to a different value.
package ttlcache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// FetchFunc produces a fresh value for a cache key, typically one bulk
// network call covering many stations.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result labels how a cache lookup was satisfied, for metrics.
type Result string

const (
	// ResultHit means the entry was younger than the TTL.
	ResultHit Result = "hit"
	// ResultRefresh means the entry was missing or expired and a fetch succeeded.
	ResultRefresh Result = "refresh"
	// ResultStale means the fetch failed and an expired entry was served instead.
	ResultStale Result = "stale"
	// ResultMiss means the fetch failed with nothing cached to fall back on.
	ResultMiss Result = "miss"
)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Cache is a thread-safe TTL cache keyed by provider-specific strings (often
// a single bulk key). Expired entries are refreshed lazily on access and kept
// as a fallback when the refresh fails; a failed refresh never corrupts the
// previously cached value.
type Cache[T any] struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]entry[T]
}

// New creates a Cache with the given TTL. Pass a nil clock for real time;
// tests inject a fake to step through expiry.
func New[T any](ttl time.Duration, clock clockwork.Clock) *Cache[T] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache[T]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry[T]),
	}
}

// GetOrFetch returns the cached value for key when it is younger than the
// TTL, and otherwise calls fetch. On success the value and its fetch instant
// are stored together; on failure a stale entry is served when one exists,
// and the error is returned only when the cache is empty for this key.
//
// Concurrent callers seeing an expired entry may each trigger a fetch; the
// invariant is only that value and timestamp move together.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key string, fetch FetchFunc[T]) (T, Result, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.clock.Since(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.value, ResultHit, nil
	}
	c.mu.Unlock()

	// Fetch outside the lock; a slow provider must not block readers of
	// other keys or of the still-valid stale entry.
	v, err := fetch(ctx)
	if err != nil {
		if ok {
			return e.value, ResultStale, nil
		}
		var zero T
		return zero, ResultMiss, err
	}

	c.mu.Lock()
	c.entries[key] = entry[T]{value: v, fetchedAt: c.clock.Now()}
	c.mu.Unlock()
	return v, ResultRefresh, nil
}
