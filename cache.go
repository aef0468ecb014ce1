package unireservas

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

type cacheEntry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a goroutine-safe TTL cache. Every entry carries its own expiry,
// set when the value is stored.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     Clock
	entries map[K]cacheEntry[V]
}

// NewCache creates a cache whose entries stay fresh for ttl. A nil clock
// means time.Now.
func NewCache[K comparable, V any](ttl time.Duration, now Clock) *Cache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[K]cacheEntry[V]),
	}
}

// Get returns the value for key while it is fresh, i.e. while now is before
// its expiry.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Peek returns the stored value for key whether or not it is still fresh.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.value, ok
}

// Set stores value under key with a fresh expiry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.entries[key] = cacheEntry[V]{value: value, storedAt: now, expiresAt: now.Add(c.ttl)}
}

// Update rewrites the stored value in place without touching its expiry.
// It reports false when there is no entry, fresh or stale.
func (c *Cache[K, V]) Update(key K, fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.value = fn(e.value)
	c.entries[key] = e
	return true
}

// Invalidate drops key.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]cacheEntry[V])
}

// ExpiresAt reports when key goes stale.
func (c *Cache[K, V]) ExpiresAt(key K) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.expiresAt, ok
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
