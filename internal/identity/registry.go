// Package identity assigns and caches the GUIDs that keep asset references
// stable across repeated bakes.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/Faultbox/meshbake/internal/meta"
)

// NewGUID returns a fresh random GUID.
func NewGUID() string {
	return uuid.NewString()
}

// Registry maps asset paths to the GUIDs stored in their sidecars.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	guids map[string]string

	// Stats
	hits   int
	misses int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{guids: make(map[string]string)}
}

// Find returns the GUID in the sidecar of asset, if one exists.
func (r *Registry) Find(asset string) (string, bool, error) {
	key := filepath.Clean(asset)

	r.mu.Lock()
	defer r.mu.Unlock()

	if guid, ok := r.guids[key]; ok {
		r.hits++
		return guid, true, nil
	}
	r.misses++

	h, err := meta.ReadHolder(meta.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if h.GUID == "" {
		return "", false, nil
	}
	r.guids[key] = h.GUID
	return h.GUID, true, nil
}

// Ensure returns the GUID of asset, creating and persisting a sidecar
// when none exists yet.
func (r *Registry) Ensure(asset, typeName string) (string, error) {
	key := filepath.Clean(asset)

	r.mu.Lock()
	defer r.mu.Unlock()

	if guid, ok := r.guids[key]; ok {
		r.hits++
		return guid, nil
	}
	r.misses++

	h, err := meta.ReadHolder(meta.Path(key))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		h = &meta.AssetHolder{}
	case err != nil:
		return "", err
	}

	if h.GUID == "" {
		h.GUID = NewGUID()
		h.TypeName = typeName
		if err := meta.WriteHolder(meta.Path(key), h); err != nil {
			return "", fmt.Errorf("persisting identity of %s: %w", asset, err)
		}
	}
	r.guids[key] = h.GUID
	return h.GUID, nil
}

// Stats returns cache hit and miss counts.
func (r *Registry) Stats() (hits, misses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits, r.misses
}
