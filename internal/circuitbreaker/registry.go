package circuitbreaker

import (
	"sync"
)

// Registry holds one breaker per provider id. Breakers are created
// lazily on first use and share the registry's settings; locking on the
// registry covers only the map itself, never a breaker's transitions.
type Registry struct {
	mutex    sync.RWMutex
	breakers map[string]*CircuitBreaker
	settings Settings
}

func NewRegistry(settings Settings) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		settings: settings,
	}
}

// GetBreaker returns the breaker for the given provider id, creating it
// on first use.
func (r *Registry) GetBreaker(providerID string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[providerID]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[providerID]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.settings)
	r.breakers[providerID] = cb
	return cb
}

// States returns the current state of every known breaker.
func (r *Registry) States() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for id, cb := range r.breakers {
		states[id] = cb.State()
	}
	return states
}

// Snapshots returns the health view of every known breaker.
func (r *Registry) Snapshots() map[string]Snapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snaps := make(map[string]Snapshot, len(r.breakers))
	for id, cb := range r.breakers {
		snaps[id] = cb.Snapshot()
	}
	return snaps
}

// Reset discards every breaker, returning all providers to CLOSED.
func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*CircuitBreaker)
}
