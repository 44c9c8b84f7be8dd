package scopehost

import (
	"context"

	"github.com/danpasecinic/scopehost/internal/container"
	"github.com/danpasecinic/scopehost/internal/scope"
)

type Lifetime = scope.Lifetime

const (
	Singleton = scope.Singleton
	Scoped    = scope.Scoped
	Transient = scope.Transient
)

// Scope is a child of a Container. Scoped services resolve to one instance
// per Scope, and Close disposes everything the scope created.
type Scope struct {
	internal  *container.Scope
	container *Container
}

func (s *Scope) ID() string {
	return s.internal.ID()
}

func (s *Scope) Container() *Container {
	return s.container
}

func (s *Scope) Resolve(ctx context.Context, key string) (any, error) {
	return s.internal.Resolve(ctx, key)
}

func (s *Scope) Has(key string) bool {
	return s.internal.Has(key)
}

// Host returns the scope's Host.
func (s *Scope) Host(ctx context.Context) (*Host, error) {
	return Invoke[*Host](ctx, s)
}

// Lifetime returns the scope's ScopeLifetime.
func (s *Scope) Lifetime(ctx context.Context) (*ScopeLifetime, error) {
	return Invoke[*ScopeLifetime](ctx, s)
}

// Close disposes the instances created by the scope, newest first. Instances
// with a Close(context.Context) error method are closed with ctx; io.Closer is
// used otherwise.
func (s *Scope) Close(ctx context.Context) error {
	return s.internal.Close(ctx)
}

func (s *Scope) hostedServices(ctx context.Context) ([]*hostedService, error) {
	keys := s.internal.HostedKeys()
	instances, err := s.internal.HostedServices(ctx)
	if err != nil {
		return nil, resolutionError("hosted services", err)
	}

	services := make([]*hostedService, 0, len(instances))
	for i, instance := range instances {
		svc, ok := instance.(HostedService)
		if !ok {
			return nil, errTypeMismatch(keys[i], instance)
		}
		services = append(services, classify(keys[i], svc))
	}
	return services, nil
}
