package container

import (
	"context"
	"sync"

	"github.com/danpasecinic/scopehost/internal/scope"
)

type ProviderFunc func(ctx context.Context, r Resolver) (any, error)

type Resolver interface {
	Resolve(ctx context.Context, key string) (any, error)
	Has(key string) bool
}

type ServiceEntry struct {
	Key      string
	Provider ProviderFunc
	Lifetime scope.Lifetime
	Hosted   bool

	// Value is set for entries registered with an existing instance.
	Value    any
	HasValue bool
}

// Registry keeps entries in registration order. Replacing an entry keeps its
// original position.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*ServiceEntry
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]*ServiceEntry),
	}
}

func (r *Registry) Register(entry *ServiceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[entry.Key]; !exists {
		r.order = append(r.order, entry.Key)
	}
	r.services[entry.Key] = entry
}

func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.services[key]
	return exists
}

func (r *Registry) Get(key string) (*ServiceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.services[key]
	return entry, exists
}

func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

func (r *Registry) HostedKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for _, key := range r.order {
		if r.services[key].Hosted {
			keys = append(keys, key)
		}
	}
	return keys
}

func (r *Registry) Entries() []ServiceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]ServiceEntry, 0, len(r.order))
	for _, key := range r.order {
		entries = append(entries, *r.services[key])
	}
	return entries
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.services)
}

func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[key]; !exists {
		return
	}
	delete(r.services, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
