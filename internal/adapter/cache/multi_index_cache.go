package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cacheable values can be retrieved by any of their keys.
type Cacheable interface {
	CacheKeys() []string
}

// MultiIndexCache stores values under all of their keys. Every invalidation
// advances a generation counter so that fills racing with a write can be
// discarded, see AddIfUnchanged.
type MultiIndexCache[V Cacheable] struct {
	entries    *expirable.LRU[string, V]
	generation uint64
	mu         sync.RWMutex
}

// Generation returns the current invalidation generation.
func (c *MultiIndexCache[V]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.generation
}

func (c *MultiIndexCache[V]) Add(value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.add(value)
}

// AddIfUnchanged stores the value only if no invalidation happened since
// the given generation was read. It returns true if the value was stored.
func (c *MultiIndexCache[V]) AddIfUnchanged(value V, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		return false
	}

	c.add(value)

	return true
}

func (c *MultiIndexCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.entries.Get(key)
}

// Remove evicts the value stored under key, along with all its other keys.
// The generation advances even if nothing was cached under key.
func (c *MultiIndexCache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++

	value, exists := c.entries.Peek(key)
	if !exists {
		return
	}

	for _, k := range value.CacheKeys() {
		c.entries.Remove(k)
	}
}

func (c *MultiIndexCache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.entries.Purge()
}

func (c *MultiIndexCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.entries.Len()
}

func (c *MultiIndexCache[V]) add(value V) {
	for _, key := range value.CacheKeys() {
		c.entries.Add(key, value)
	}
}

func NewMultiIndexCache[V Cacheable](size int, ttl time.Duration) *MultiIndexCache[V] {
	return &MultiIndexCache[V]{
		entries: expirable.NewLRU[string, V](size, nil, ttl),
	}
}
