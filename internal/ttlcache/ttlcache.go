// Package ttlcache is a small bounded cache with per-entry expiry. It backs
// every advisory, time-bounded cache in the bot (spam records, profile reads,
// sent-image tracking) so eviction behaves the same everywhere.
package ttlcache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache maps string keys to values that expire ttl after their last Set.
// When the cache grows past maxSize the oldest entries are dropped first.
// Safe for concurrent use. Staleness up to the TTL is accepted by design.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]entry[V]
}

// New creates a cache. maxSize <= 0 means unbounded (TTL eviction only).
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the live value for key. An expired entry is a miss and is
// removed on the spot.
func (c *Cache[V]) Get(key string, now time.Time) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if now.Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, overwriting any prior entry and resetting its
// TTL. Evicts the oldest entries when the size bound is exceeded.
func (c *Cache[V]) Set(key string, value V, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: now}
	if c.maxSize > 0 && len(c.entries) > c.maxSize {
		c.evictOldestLocked(len(c.entries) - c.maxSize)
	}
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes all expired entries and reports how many were dropped.
func (c *Cache[V]) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

func (c *Cache[V]) evictOldestLocked(n int) {
	for ; n > 0; n-- {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for k, e := range c.entries {
			if first || e.storedAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = e.storedAt
				first = false
			}
		}
		if first {
			return
		}
		delete(c.entries, oldestKey)
	}
}

// RunSweeper sweeps expired entries every interval until ctx is done.
// Call from main or app lifecycle.
func (c *Cache[V]) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(time.Now())
		}
	}
}
