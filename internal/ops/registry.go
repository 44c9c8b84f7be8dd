package ops

import (
	"context"
	"sort"
	"sync"
)

// Prober is the part of a scopehost.Host the probes call.
type Prober interface {
	Live(ctx context.Context) error
	Ready(ctx context.Context) error
}

// Registry tracks the hosts of running scopes by scope ID.
type Registry struct {
	mu    sync.RWMutex
	hosts map[string]Prober
}

func NewRegistry() *Registry {
	return &Registry{hosts: make(map[string]Prober)}
}

func (r *Registry) Add(id string, p Prober) {
	r.mu.Lock()
	r.hosts[id] = p
	r.mu.Unlock()
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.hosts, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hosts)
}

// each calls fn for every host in scope ID order.
func (r *Registry) each(fn func(id string, p Prober)) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.hosts))
	for id := range r.hosts {
		ids = append(ids, id)
	}
	hosts := make(map[string]Prober, len(r.hosts))
	for id, p := range r.hosts {
		hosts[id] = p
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	for _, id := range ids {
		fn(id, hosts[id])
	}
}
