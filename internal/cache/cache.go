// Package cache provides the bounded LRU caches that memoize per-page and
// per-query artifacts of the retrieval pipeline.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats is a snapshot of cache activity
type Stats struct {
	Capacity int   `json:"capacity"`
	Size     int   `json:"size"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
}

// LRU is a fixed-capacity least-recently-used cache. A capacity of 0 (or
// less) disables it: Get always misses and Add is a no-op. It is safe for
// concurrent use.
type LRU[K comparable, V any] struct {
	capacity int
	lru      *lru.Cache[K, V]
	hits     atomic.Int64
	misses   atomic.Int64
}

// New creates a cache holding at most capacity entries
func New[K comparable, V any](capacity int) *LRU[K, V] {
	c := &LRU[K, V]{capacity: max(0, capacity)}
	if c.capacity > 0 {
		// lru.New only fails for non-positive sizes
		c.lru, _ = lru.New[K, V](c.capacity)
	}
	return c
}

// Get returns the cached value and marks it most recently used
func (c *LRU[K, V]) Get(key K) (V, bool) {
	if c.lru == nil {
		var zero V
		c.misses.Add(1)
		return zero, false
	}
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Add stores a value, evicting the least recently used entry when full
func (c *LRU[K, V]) Add(key K, value V) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, value)
}

// Contains reports whether key is cached without touching recency
func (c *LRU[K, V]) Contains(key K) bool {
	return c.lru != nil && c.lru.Contains(key)
}

// Len returns the number of cached entries
func (c *LRU[K, V]) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every entry
func (c *LRU[K, V]) Purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

// Stats returns a snapshot of cache activity
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Capacity: c.capacity,
		Size:     c.Len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}
