// Package scopehosttest provides helpers for testing code that runs on
// scopehost.
package scopehosttest

import (
	"context"

	"github.com/danpasecinic/scopehost"
	"github.com/danpasecinic/scopehost/internal/reflect"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

type TestContainer struct {
	*scopehost.Container
	tb TB
}

// New returns a container that is closed when the test ends.
func New(tb TB, opts ...scopehost.Option) *TestContainer {
	tb.Helper()

	c := scopehost.New(opts...)
	tc := &TestContainer{
		Container: c,
		tb:        tb,
	}

	tb.Cleanup(func() {
		if err := c.Close(context.Background()); err != nil {
			tb.Fatalf("failed to close container: %v", err)
		}
	})

	return tc
}

// NewScope returns a scope that is closed when the test ends, and its host.
// The host is not started.
func (tc *TestContainer) NewScope(ctx context.Context) (*scopehost.Scope, *scopehost.Host) {
	tc.tb.Helper()

	s := tc.Container.NewScope()
	host, err := s.Host(ctx)
	if err != nil {
		tc.tb.Fatalf("failed to resolve host: %v", err)
	}

	tc.tb.Cleanup(func() {
		if err := s.Close(context.Background()); err != nil {
			tc.tb.Fatalf("failed to close scope %s: %v", s.ID(), err)
		}
	})
	return s, host
}

// StartScope creates a scope and starts its host. The host is stopped, if it
// has not been already, and the scope closed when the test ends.
func (tc *TestContainer) StartScope(ctx context.Context) (*scopehost.Scope, *scopehost.Host) {
	tc.tb.Helper()

	s, host := tc.NewScope(ctx)
	tc.RequireStart(ctx, host)

	tc.tb.Cleanup(func() {
		if host.Lifetime().Stopped().Triggered() {
			return
		}
		if err := host.Stop(context.Background()); err != nil {
			tc.tb.Fatalf("failed to stop host: %v", err)
		}
	})
	return s, host
}

func (tc *TestContainer) RequireStart(ctx context.Context, host *scopehost.Host) {
	tc.tb.Helper()

	if err := host.Start(ctx); err != nil {
		tc.tb.Fatalf("failed to start host: %v", err)
	}
}

func (tc *TestContainer) RequireStop(ctx context.Context, host *scopehost.Host) {
	tc.tb.Helper()

	if err := host.Stop(ctx); err != nil {
		tc.tb.Fatalf("failed to stop host: %v", err)
	}
}

func Replace[T any](tc *TestContainer, value T, opts ...scopehost.ProviderOption) {
	tc.tb.Helper()

	if err := scopehost.ReplaceValue(tc.Container, value, opts...); err != nil {
		tc.tb.Fatalf("failed to replace %s: %v", reflect.TypeKey[T](), err)
	}
}

func ReplaceProvider[T any](tc *TestContainer, provider scopehost.Provider[T], opts ...scopehost.ProviderOption) {
	tc.tb.Helper()

	if err := scopehost.Replace(tc.Container, provider, opts...); err != nil {
		tc.tb.Fatalf("failed to replace provider %s: %v", reflect.TypeKey[T](), err)
	}
}

func MustProvide[T any](tc *TestContainer, provider scopehost.Provider[T], opts ...scopehost.ProviderOption) {
	tc.tb.Helper()

	if err := scopehost.Provide(tc.Container, provider, opts...); err != nil {
		tc.tb.Fatalf("failed to provide %s: %v", reflect.TypeKey[T](), err)
	}
}

func MustProvideValue[T any](tc *TestContainer, value T, opts ...scopehost.ProviderOption) {
	tc.tb.Helper()

	if err := scopehost.ProvideValue(tc.Container, value, opts...); err != nil {
		tc.tb.Fatalf("failed to provide value %s: %v", reflect.TypeKey[T](), err)
	}
}

// MustProvideHostedService registers svc as a hosted service. Every scope
// gets the same instance.
func MustProvideHostedService[T scopehost.HostedService](tc *TestContainer, svc T, opts ...scopehost.ProviderOption) {
	tc.tb.Helper()

	provider := func(context.Context, scopehost.Resolver) (T, error) { return svc, nil }
	if err := scopehost.ProvideHostedService(tc.Container, provider, opts...); err != nil {
		tc.tb.Fatalf("failed to provide hosted service %s: %v", reflect.TypeKey[T](), err)
	}
}

func MustInvoke[T any](tc *TestContainer, r scopehost.Resolver) T {
	tc.tb.Helper()

	v, err := scopehost.Invoke[T](context.Background(), r)
	if err != nil {
		tc.tb.Fatalf("failed to invoke %s: %v", reflect.TypeKey[T](), err)
	}
	return v
}

func AssertHas[T any](tc *TestContainer, r scopehost.Resolver) {
	tc.tb.Helper()

	if !scopehost.Has[T](r) {
		tc.tb.Fatalf("expected resolver to have %s", reflect.TypeKey[T]())
	}
}

func AssertNotHas[T any](tc *TestContainer, r scopehost.Resolver) {
	tc.tb.Helper()

	if scopehost.Has[T](r) {
		tc.tb.Fatalf("expected resolver to not have %s", reflect.TypeKey[T]())
	}
}
