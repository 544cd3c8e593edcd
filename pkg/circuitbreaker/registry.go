package circuitbreaker

import (
	"sync"
)

// Registry holds one breaker per dependency name so independent call sites
// referring to the same name share an instance.
type Registry struct {
	mutex    sync.RWMutex
	breakers map[string]*CircuitBreaker
	defaults Config
}

// NewRegistry creates an empty registry. The given defaults are merged into
// every breaker constructed by Get.
func NewRegistry(defaults Config) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		defaults: defaults,
	}
}

// Get returns the breaker for name, creating it on first use. An optional
// override config is merged over the registry defaults at creation time
// only; later calls for the same name ignore it. Call sites needing
// different configs must use distinct names.
func (r *Registry) Get(name string, override ...Config) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[name]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[name]; exists {
		return cb
	}

	cfg := r.defaults
	if len(override) > 0 {
		cfg = cfg.merged(override[0])
	}

	cb = NewCircuitBreaker(name, cfg)
	r.breakers[name] = cb
	return cb
}

// Has reports whether a breaker exists for name.
func (r *Registry) Has(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.breakers[name]
	return exists
}

// Remove drops the breaker for name, reporting whether one existed.
func (r *Registry) Remove(name string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, exists := r.breakers[name]
	delete(r.breakers, name)
	return exists
}

// All returns a copy of the name -> breaker mapping.
func (r *Registry) All() map[string]*CircuitBreaker {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	all := make(map[string]*CircuitBreaker, len(r.breakers))
	for name, cb := range r.breakers {
		all[name] = cb
	}
	return all
}

// Clear drops all breakers.
func (r *Registry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*CircuitBreaker)
}

// AllStats returns a stats snapshot for every registered breaker.
func (r *Registry) AllStats() map[string]Stats {
	all := r.All()

	stats := make(map[string]Stats, len(all))
	for name, cb := range all {
		stats[name] = cb.Stats()
	}
	return stats
}

// ResetAll resets every registered breaker to closed.
func (r *Registry) ResetAll() {
	for _, cb := range r.All() {
		cb.Reset()
	}
}

// SetDefaults overlays the non-zero fields of cfg onto the registry
// defaults. Only breakers created afterwards are affected.
func (r *Registry) SetDefaults(cfg Config) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.defaults = r.defaults.merged(cfg)
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, created on first use.
// Prefer constructing and injecting a Registry; this exists for callers
// without a composition root.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(Config{})
	})
	return defaultRegistry
}

// GetCircuitBreaker returns the named breaker from the default registry.
func GetCircuitBreaker(name string, override ...Config) *CircuitBreaker {
	return Default().Get(name, override...)
}
