// Package cache provides a small generic LRU cache.
//
// Cache is NOT safe for concurrent use; it belongs to a single owner such
// as a Buffer.
package cache

// Cache is an LRU cache holding at most limit entries.
type Cache[K comparable, V any] struct {
	entries map[K]*entry[V]
	limit   int
	tick    int64 // monotonic access counter
}

type entry[V any] struct {
	value V
	atime int64
}

// New creates a cache with the given limit. A limit of 0 means unlimited.
func New[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[V]),
		limit:   max(0, limit),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.tick++
	e.atime = c.tick
	return e.value, true
}

// Set stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.tick++
	if e, ok := c.entries[key]; ok {
		e.value, e.atime = value, c.tick
		return
	}
	if c.limit > 0 && len(c.entries) >= c.limit {
		c.evictOldest()
	}
	c.entries[key] = &entry[V]{value: value, atime: c.tick}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int { return len(c.entries) }

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	clear(c.entries)
	c.tick = 0
}

func (c *Cache[K, V]) evictOldest() {
	var (
		oldest K
		atime  int64
		found  bool
	)
	for k, e := range c.entries {
		if !found || e.atime < atime {
			oldest, atime, found = k, e.atime, true
		}
	}
	if found {
		delete(c.entries, oldest)
	}
}
