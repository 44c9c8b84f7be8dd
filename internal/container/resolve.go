package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/danpasecinic/scopehost/internal/lifecycle"
	"github.com/danpasecinic/scopehost/internal/scope"
)

var ErrProvider = errors.New("provider failed")

type chainKey struct{}

func chainFrom(ctx context.Context) []string {
	chain, _ := ctx.Value(chainKey{}).([]string)
	return chain
}

func withChain(ctx context.Context, key string) context.Context {
	chain := chainFrom(ctx)
	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	return context.WithValue(ctx, chainKey{}, append(next, key))
}

// resolve looks up key and produces an instance according to its lifetime.
// Singletons always resolve their dependencies from the root so they never
// capture scoped instances.
func (c *Container) resolve(ctx context.Context, key string, s *Scope) (any, error) {
	chain := chainFrom(ctx)
	if slices.Contains(chain, key) {
		cycle := append(slices.Clone(chain), key)
		return nil, fmt.Errorf("%w: %s", ErrCircular, strings.Join(cycle, " -> "))
	}

	entry, ok := c.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if entry.HasValue {
		return entry.Value, nil
	}

	ctx = withChain(ctx, key)

	switch entry.Lifetime {
	case scope.Singleton:
		return c.singletons.getOrCreate(key, func() (any, error) {
			return callProvider(ctx, entry, c)
		})
	case scope.Scoped:
		if s == nil {
			return nil, fmt.Errorf("%w: %s", ErrScopedFromRoot, key)
		}
		return s.instances.getOrCreate(key, func() (any, error) {
			return callProvider(ctx, entry, s)
		})
	default:
		var r Resolver = c
		cache := c.singletons
		if s != nil {
			r = s
			cache = s.instances
		}
		instance, err := callProvider(ctx, entry, r)
		if err != nil {
			return nil, err
		}
		cache.track(instance)
		return instance, nil
	}
}

func callProvider(ctx context.Context, entry *ServiceEntry, r Resolver) (any, error) {
	instance, err := entry.Provider(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProvider, entry.Key, err)
	}
	return instance, nil
}

type cell struct {
	mu    sync.Mutex
	done  bool
	value any
}

// instanceCache holds one instance per key and remembers every created
// instance in creation order for disposal.
type instanceCache struct {
	mu      sync.Mutex
	cells   map[string]*cell
	created []any
}

func newInstanceCache() *instanceCache {
	return &instanceCache{cells: make(map[string]*cell)}
}

func (ic *instanceCache) getOrCreate(key string, create func() (any, error)) (any, error) {
	ic.mu.Lock()
	cl, ok := ic.cells[key]
	if !ok {
		cl = &cell{}
		ic.cells[key] = cl
	}
	ic.mu.Unlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.done {
		return cl.value, nil
	}

	instance, err := create()
	if err != nil {
		return nil, err
	}
	cl.value = instance
	cl.done = true
	ic.track(instance)
	return instance, nil
}

func (ic *instanceCache) track(instance any) {
	ic.mu.Lock()
	ic.created = append(ic.created, instance)
	ic.mu.Unlock()
}

func (ic *instanceCache) forget(key string) {
	ic.mu.Lock()
	delete(ic.cells, key)
	ic.mu.Unlock()
}

func (ic *instanceCache) dispose(ctx context.Context, logger *slog.Logger) error {
	ic.mu.Lock()
	created := ic.created
	ic.created = nil
	ic.cells = make(map[string]*cell)
	ic.mu.Unlock()

	var acc lifecycle.Accumulator
	for _, instance := range lifecycle.Reversed(created) {
		if err := disposeInstance(ctx, instance); err != nil {
			logger.Warn("failed to dispose instance",
				"type", fmt.Sprintf("%T", instance),
				"error", err,
			)
			acc.Add(err)
		}
	}
	return acc.Err("one or more instances failed to close")
}

type contextCloser interface {
	Close(ctx context.Context) error
}

func disposeInstance(ctx context.Context, instance any) error {
	switch v := instance.(type) {
	case contextCloser:
		return v.Close(ctx)
	case io.Closer:
		return v.Close()
	}
	return nil
}
