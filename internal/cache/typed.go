package cache

import "time"

// Typed provides type-safe access to a Cache for a specific type T.
type Typed[T any] struct {
	cache  *Cache
	prefix string
}

// Scoped returns a Typed[T] that prefixes all keys with "namespace:".
func Scoped[T any](c *Cache, namespace string) *Typed[T] {
	return &Typed[T]{
		cache:  c,
		prefix: namespace + ":",
	}
}

// Get retrieves and deserializes a value by key.
func (t *Typed[T]) Get(key string) (T, error) {
	var v T
	if err := t.cache.Get(t.prefix+key, &v); err != nil {
		return v, err
	}
	return v, nil
}

// Set stores a value with no expiry.
func (t *Typed[T]) Set(key string, value T) error {
	return t.cache.Set(t.prefix+key, value)
}

// SetTTL stores a value that expires after the given duration.
func (t *Typed[T]) SetTTL(key string, value T, ttl time.Duration) error {
	return t.cache.SetTTL(t.prefix+key, value, ttl)
}

// Delete removes a key.
func (t *Typed[T]) Delete(key string) {
	t.cache.Delete(t.prefix + key)
}

// Has returns whether a key exists.
func (t *Typed[T]) Has(key string) bool {
	return t.cache.Has(t.prefix + key)
}

// InvalidateAll drops every key in this scope.
func (t *Typed[T]) InvalidateAll() int {
	return t.cache.Invalidate(t.prefix)
}
