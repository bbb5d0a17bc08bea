// Package cache is the in-process query cache backing read endpoints.
// Values are stored JSON-encoded so cached entries are snapshots, detached
// from caller memory. Missing and expired keys return ErrNotFound.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrNotFound indicates the key is absent or its entry expired.
var ErrNotFound = errors.New("cache: key not found")

// entry is one stored value.
type entry struct {
	value     json.RawMessage
	expiresAt *time.Time
}

// Cache is a concurrency-safe JSON-value store with prefix invalidation.
// Keys are strings; use Key to assemble them namespace-first so related
// entries share a prefix.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithNow sets the clock used for expiry checks.
func WithNow(fn func() time.Time) Option {
	return func(c *Cache) {
		if fn != nil {
			c.now = fn
		}
	}
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get loads the value stored under key into dest.
func (c *Cache) Get(key string, dest any) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.expiresAt != nil && c.now().After(*e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return nil
}

// Set stores value under key with no expiry.
func (c *Cache) Set(key string, value any) error {
	return c.SetTTL(key, value, 0)
}

// SetTTL stores value under key, expiring after ttl. A ttl of zero or less
// means no expiry.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}

	e := entry{value: data}
	if ttl > 0 {
		exp := c.now().Add(ttl)
		e.expiresAt = &exp
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Has reports whether key holds a live entry.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok && e.expiresAt != nil && c.now().After(*e.expiresAt) {
		delete(c.entries, key)
		return false
	}
	return ok
}

// Delete removes one key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Invalidate removes every key with the given prefix and reports how many
// entries were dropped.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key joins parts into a cache key, namespace first.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
