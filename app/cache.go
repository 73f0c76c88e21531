package app

import (
	"sync"

	"mintpy/domain/core"
	"mintpy/domain/result"
)

// ResultCache keeps the most recent store per method so dependent
// diagnostics can chain off earlier ones without recomputing. Last
// write wins; the cache never evicts.
type ResultCache struct {
	mu     sync.RWMutex
	stores map[core.Method]*result.Store
}

// NewResultCache builds an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{stores: make(map[core.Method]*result.Store)}
}

// Put records a completed store under its method.
func (c *ResultCache) Put(method core.Method, store *result.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores[method] = store
}

// Get returns the last store computed for a method.
func (c *ResultCache) Get(method core.Method) (*result.Store, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.stores[method]
	return s, ok
}
