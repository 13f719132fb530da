// Package cache provides an in-memory map whose entries expire a fixed
// duration after insertion.
package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// sweepEvery is how many inserts pass between sweeps of expired entries.
const sweepEvery = 256

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is safe for concurrent use. Expired entries are never returned.
type Cache[K comparable, V any] struct {
	ttl   time.Duration
	clock Clock

	mu      sync.RWMutex
	data    map[K]entry[V]
	inserts int
}

// New builds a cache with the given ttl. A nil clock uses time.Now.
func New[K comparable, V any](ttl time.Duration, clock Clock) *Cache[K, V] {
	if clock == nil {
		clock = time.Now
	}
	return &Cache[K, V]{
		ttl:   ttl,
		clock: clock,
		data:  make(map[K]entry[V]),
	}
}

// Get returns the value for key if it has not expired. An expired entry is
// removed on the way out.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	now := c.clock()
	c.mu.RLock()
	item, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if now.Before(item.expiresAt) {
		return item.value, true
	}
	c.mu.Lock()
	// A concurrent Set may have refreshed the entry since the read.
	if current, ok := c.data[key]; ok && !now.Before(current.expiresAt) {
		delete(c.data, key)
	}
	c.mu.Unlock()
	return zero, false
}

// Set stores value under key, replacing any previous entry. Every
// sweepEvery inserts it also drops entries that expired without being read.
func (c *Cache[K, V]) Set(key K, value V) {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
	c.inserts++
	if c.inserts >= sweepEvery {
		c.inserts = 0
		c.purgeLocked(now)
	}
}

// Len counts entries that are still live.
func (c *Cache[K, V]) Len() int {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, item := range c.data {
		if now.Before(item.expiresAt) {
			n++
		}
	}
	return n
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache[K, V]) Purge() int {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(now)
}

func (c *Cache[K, V]) purgeLocked(now time.Time) int {
	removed := 0
	for key, item := range c.data {
		if !now.Before(item.expiresAt) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}
