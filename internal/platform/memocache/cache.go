// Package memocache provides process-local, time-boxed memoization of
// expensive upstream calls. It is best-effort by design: entries expire by
// TTL, expired entries are swept inline once the map crosses a size
// threshold, and nothing is shared or invalidated across processes.
package memocache

import (
	"sync"
	"time"

	clockport "github.com/cafescout/cafe-scout-api/internal/ports/out/clock"
)

// Config sets the TTL and the map size past which a write triggers an inline
// sweep of expired entries.
type Config struct {
	TTL            time.Duration
	SweepThreshold int
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a clock-injected TTL cache. It is safe for concurrent use.
type Cache[V any] struct {
	cfg Config
	clk clockport.Clock

	mu sync.Mutex
	m  map[string]entry[V]
}

func New[V any](cfg Config, clk clockport.Clock) *Cache[V] {
	return &Cache[V]{
		cfg: cfg,
		clk: clk,
		m:   make(map[string]entry[V]),
	}
}

// Get returns the cached value when present and younger than the TTL. An
// entry exactly TTL old counts as expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.clk.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || !fresh(e.storedAt, now, c.cfg.TTL) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key with the current timestamp. When the map has
// grown past the sweep threshold, expired entries are removed inline; there
// is no background timer.
func (c *Cache[V]) Put(key string, value V) {
	now := c.clk.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = entry[V]{value: value, storedAt: now}
	if c.cfg.SweepThreshold > 0 && len(c.m) > c.cfg.SweepThreshold {
		c.sweep(now)
	}
}

// Len reports the number of stored entries, including expired ones not yet
// swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *Cache[V]) sweep(now time.Time) {
	for k, e := range c.m {
		if !fresh(e.storedAt, now, c.cfg.TTL) {
			delete(c.m, k)
		}
	}
}

func fresh(storedAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(storedAt) < ttl
}
