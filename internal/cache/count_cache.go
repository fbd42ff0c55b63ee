// Package cache holds optimistic local mirrors of server-owned counters.
package cache

import "sync"

// CachedCount is a locally cached read of a remote counter. It is valid
// only while the cooldown period it was read in is still current.
type CachedCount struct {
	Value          int
	ValidForPeriod string
}

// CountCache caches remote usage counts per identity so each process asks
// the remote store at most once per period, plus explicit invalidation
// after mutating remote operations.
type CountCache struct {
	mu     sync.Mutex
	counts map[string]CachedCount
}

func NewCountCache() *CountCache {
	return &CountCache{counts: make(map[string]CachedCount)}
}

// Get returns the cached value for key if it was read in the given period.
func (c *CountCache) Get(key, period string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.counts[key]
	if !ok || cached.ValidForPeriod != period {
		return 0, false
	}
	return cached.Value, true
}

func (c *CountCache) Set(key, period string, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key] = CachedCount{Value: value, ValidForPeriod: period}
}

// Bump adjusts a cached value in place so rapid repeated reads observe an
// optimistic local increment before the next authoritative remote read.
// A stale or missing entry is left alone; the next Get will miss and force
// a fresh read.
func (c *CountCache) Bump(key, period string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.counts[key]
	if !ok || cached.ValidForPeriod != period {
		return
	}
	cached.Value += delta
	if cached.Value < 0 {
		cached.Value = 0
	}
	c.counts[key] = cached
}

// Invalidate drops the cached value for key.
func (c *CountCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, key)
}
