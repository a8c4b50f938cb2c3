// Package registry is an in-memory, memoizing cache of validated
// process definitions, loaded lazily from disk by id.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caphtech/state-gate/internal/cueschema"
	"github.com/caphtech/state-gate/internal/model"
	"github.com/caphtech/state-gate/internal/processdef"
	"github.com/caphtech/state-gate/internal/validate"
)

// ErrNotFound is returned whenever a process cannot be resolved, whether
// because no definition file exists under either extension or because
// the file that does exist fails structural or semantic validation.
// The registry never caches invalid definitions.
var ErrNotFound = errors.New("registry: process not found")

// Registry is a directory of process definitions plus a memoizing cache.
// Concurrent Get calls share a read lock; concurrent GetAsync misses
// may race to load and validate the same id; the last successful
// writer wins, which is safe because every successful load of the same
// file produces an equivalent Process.
type Registry struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*model.Process
}

// New constructs a Registry that loads process definitions from dir.
func New(dir string) *Registry {
	return &Registry{dir: dir, cache: make(map[string]*model.Process)}
}

// Get returns a memoized process without touching the filesystem.
func (r *Registry) Get(id string) (*model.Process, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.cache[id]
	return p, ok
}

// GetAsync returns a memoized process, or attempts to load and validate
// one from disk on a cache miss, trying "<id>.yaml" then "<id>.yml". A
// successful load is memoized for the registry's lifetime; a failure of
// any kind collapses to ErrNotFound and nothing is cached.
func (r *Registry) GetAsync(id string) (*model.Process, error) {
	if p, ok := r.Get(id); ok {
		return p, nil
	}

	data, err := r.readDefinition(id)
	if err != nil {
		return nil, ErrNotFound
	}

	if err := cueschema.Validate(data); err != nil {
		return nil, ErrNotFound
	}

	raw, err := processdef.Decode(data)
	if err != nil {
		return nil, ErrNotFound
	}

	p, verrs := validate.Validate(raw)
	if len(verrs) > 0 {
		return nil, ErrNotFound
	}

	r.mu.Lock()
	r.cache[id] = p
	r.mu.Unlock()
	return p, nil
}

func (r *Registry) readDefinition(id string) ([]byte, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		data, err := os.ReadFile(filepath.Join(r.dir, id+ext))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("registry: read %s%s: %w", id, ext, err)
		}
	}
	return nil, os.ErrNotExist
}
