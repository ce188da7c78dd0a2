package scaling

import (
	"strings"
	"sync"
)

// Cache memoizes compiled programs by formula text. Compile errors are cached too.
// Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	prog *Program
	err  error
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Compile returns the cached program for expr, compiling it on first use.
func (c *Cache) Compile(expr string) (*Program, error) {
	key := strings.TrimSpace(expr)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e.prog, e.err
	}

	prog, err := Compile(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.prog, e.err
	}
	c.entries[key] = cacheEntry{prog: prog, err: err}
	return prog, err
}

// Len returns the number of cached formulas.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
