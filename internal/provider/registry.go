package provider

import (
	"fmt"
	"sort"
)

// Registry holds the configured providers, indexed by id. It is built
// once at startup and never mutated afterwards, so lookups need no lock.
type Registry struct {
	byID  map[string]*Provider
	order []*Provider
}

// NewRegistry builds a registry from the configured providers.
// Duplicate ids and empty sets are configuration errors.
func NewRegistry(providers []*Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("registry requires at least one provider")
	}

	byID := make(map[string]*Provider, len(providers))
	for _, p := range providers {
		if _, exists := byID[p.ID()]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID())
		}
		byID[p.ID()] = p
	}

	// Fixed iteration order so every registry traversal is deterministic.
	order := make([]*Provider, 0, len(providers))
	order = append(order, providers...)
	sort.Slice(order, func(i, j int) bool {
		return order[i].ID() < order[j].ID()
	})

	return &Registry{byID: byID, order: order}, nil
}

// Get returns the provider with the given id.
func (r *Registry) Get(id string) (*Provider, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns every provider sorted by id.
func (r *Registry) All() []*Provider {
	out := make([]*Provider, len(r.order))
	copy(out, r.order)
	return out
}

// IDs returns every provider id sorted ascending.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	for i, p := range r.order {
		ids[i] = p.ID()
	}
	return ids
}

// Len returns the number of configured providers.
func (r *Registry) Len() int {
	return len(r.order)
}
