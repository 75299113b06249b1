package cache

import (
	"errors"
	"sync/atomic"

	"github.com/chazu/blockjit/compiler/hash"
)

// Cache layers a memory store over an optional persistent store. Entries
// found on disk are promoted to memory.
type Cache struct {
	mem  *MemoryStore
	disk Store

	hits, misses atomic.Int64
}

// New creates a cache. disk may be nil.
func New(disk Store) *Cache {
	return &Cache{mem: NewMemoryStore(), disk: disk}
}

// Get looks key up in memory, then on disk.
func (c *Cache) Get(key hash.Sum) (*Entry, bool) {
	if e, err := c.mem.Get(key); err == nil {
		c.hits.Add(1)
		return e, true
	}
	if c.disk != nil {
		e, err := c.disk.Get(key)
		switch {
		case err == nil:
			c.mem.Put(e)
			c.hits.Add(1)
			return e, true
		case !errors.Is(err, ErrNotFound):
			log.Warningf("reading %s: %v", key, err)
		}
	}
	c.misses.Add(1)
	return nil, false
}

// Put stores e in memory and on disk. A disk failure is returned but the
// memory copy is kept.
func (c *Cache) Put(e *Entry) error {
	c.mem.Put(e)
	if c.disk == nil {
		return nil
	}
	return c.disk.Put(e)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
