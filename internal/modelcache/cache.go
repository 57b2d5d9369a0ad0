// Package modelcache provides a process-scoped lazy singleton registry for
// heavyweight models.
//
// Each worker process keeps its own registry; there is no cross-process
// coordination. Staleness between workers is tolerated and resolved by an
// explicit Invalidate followed by the next GetOrLoad, not by shared
// invalidation.
package modelcache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry caches loaded models by key, guaranteeing at most one loader
// invocation per key even under concurrent first access. A loader error
// propagates to every concurrent caller and is not cached, so the key can
// be retried.
type Registry struct {
	mu     sync.RWMutex
	models map[string]interface{}
	group  singleflight.Group
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{models: make(map[string]interface{})}
}

// GetOrLoad returns the cached model for key, invoking loader exactly once
// to populate it on first access. Concurrent callers for the same key share
// a single in-flight load.
func (r *Registry) GetOrLoad(key string, loader func() (interface{}, error)) (interface{}, error) {
	r.mu.RLock()
	if m, ok := r.models[key]; ok {
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		// Re-check under the singleflight: another caller may have
		// populated the key between the RUnlock and Do.
		r.mu.RLock()
		if m, ok := r.models[key]; ok {
			r.mu.RUnlock()
			return m, nil
		}
		r.mu.RUnlock()

		m, err := loader()
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.models[key] = m
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Invalidate drops the cached model for key. The next GetOrLoad reloads it.
// Used to force a similarity index rebuild.
func (r *Registry) Invalidate(key string) {
	r.mu.Lock()
	delete(r.models, key)
	r.mu.Unlock()
	r.group.Forget(key)
}

// Len returns the number of cached models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// defaultRegistry is the per-process registry used by package-level helpers.
var defaultRegistry = New()

// GetOrLoad uses the process-wide default registry.
func GetOrLoad(key string, loader func() (interface{}, error)) (interface{}, error) {
	return defaultRegistry.GetOrLoad(key, loader)
}

// Invalidate uses the process-wide default registry.
func Invalidate(key string) {
	defaultRegistry.Invalidate(key)
}
