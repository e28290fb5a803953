package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process TTL cache keyed by string
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
}

// MemoryCache is an in-memory cache. Expired entries are dropped lazily on Get.
type MemoryCache[V any] struct {
	data map[string]cacheEntry[V]
	mu   sync.RWMutex
	now  func() time.Time
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache[V any]() *MemoryCache[V] {
	return &MemoryCache[V]{
		data: make(map[string]cacheEntry[V]),
		now:  time.Now,
	}
}

// Get retrieves a value from cache
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, exists := c.data[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.Delete(key)
		return zero, false
	}

	return entry.value, true
}

// Set stores a value with TTL (0 = no expiration)
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry[V]{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.data[key] = entry
}

// Delete removes a value from cache
func (c *MemoryCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
