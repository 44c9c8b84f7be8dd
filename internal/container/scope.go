package container

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Scope is a child resolution context. Scoped registrations resolve to one
// instance per Scope; everything the scope creates is disposed by Close.
type Scope struct {
	id        string
	container *Container
	instances *instanceCache
	closed    atomic.Bool
}

func newScope(c *Container) *Scope {
	return &Scope{
		id:        uuid.NewString(),
		container: c,
		instances: newInstanceCache(),
	}
}

func (s *Scope) ID() string {
	return s.id
}

func (s *Scope) Container() *Container {
	return s.container
}

func (s *Scope) Resolve(ctx context.Context, key string) (any, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("%w: %s", ErrClosed, s.id)
	}

	start := time.Now()
	instance, err := s.container.resolve(ctx, key, s)
	s.container.callResolveHooks(key, time.Since(start), err)
	return instance, err
}

func (s *Scope) Has(key string) bool {
	return s.container.Has(key)
}

// HostedKeys returns the keys of hosted registrations in registration order.
func (s *Scope) HostedKeys() []string {
	return s.container.registry.HostedKeys()
}

// HostedServices resolves every hosted registration in registration order.
func (s *Scope) HostedServices(ctx context.Context) ([]any, error) {
	keys := s.HostedKeys()
	services := make([]any, 0, len(keys))
	for _, key := range keys {
		instance, err := s.Resolve(ctx, key)
		if err != nil {
			return nil, err
		}
		services = append(services, instance)
	}
	return services, nil
}

func (s *Scope) Closed() bool {
	return s.closed.Load()
}

// Close disposes every instance the scope created, newest first. Instances
// implementing Close(context.Context) error are preferred over io.Closer.
// Closing twice is a no-op.
func (s *Scope) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.instances.dispose(ctx, s.container.logger)
}
