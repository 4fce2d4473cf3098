package identity

import (
	"path/filepath"
	"sync"
)

// MaterialCache serializes material creation per target path across
// concurrent bakes. The first caller for a path runs the creator; every
// later caller waits for it and shares its result.
type MaterialCache struct {
	mu      sync.Mutex
	entries map[string]*materialEntry
}

type materialEntry struct {
	done chan struct{}
	guid string
	err  error
}

// NewMaterialCache creates an empty cache.
func NewMaterialCache() *MaterialCache {
	return &MaterialCache{entries: make(map[string]*materialEntry)}
}

// GetOrCreate returns the GUID for path, running create at most once.
// created reports whether this caller ran the creator.
func (c *MaterialCache) GetOrCreate(path string, create func() (string, error)) (guid string, created bool, err error) {
	key := filepath.Clean(path)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-e.done
		return e.guid, false, e.err
	}
	e := &materialEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	defer close(e.done)
	e.guid, e.err = create()
	return e.guid, true, e.err
}

// Len returns the number of paths seen.
func (c *MaterialCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
