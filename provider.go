package scopehost

import (
	"context"
	"errors"

	"github.com/danpasecinic/scopehost/internal/container"
	"github.com/danpasecinic/scopehost/internal/reflect"
)

type Provider[T any] func(ctx context.Context, r Resolver) (T, error)

type ProviderOption func(*providerConfig)

type providerConfig struct {
	name        string
	lifetime    Lifetime
	lifetimeSet bool
}

func newProviderConfig(opts []ProviderOption) *providerConfig {
	cfg := &providerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func keyFor[T any](cfg *providerConfig) string {
	return reflect.TypeKeyNamed[T](cfg.name)
}

func (cfg *providerConfig) lifetimeOr(def Lifetime) Lifetime {
	if cfg.lifetimeSet {
		return cfg.lifetime
	}
	return def
}

// Provide registers provider for T. Providers are singletons unless
// WithLifetime says otherwise.
func Provide[T any](c *Container, provider Provider[T], opts ...ProviderOption) error {
	cfg := newProviderConfig(opts)
	return register(c, keyFor[T](cfg), adapt(c, provider), cfg.lifetimeOr(Singleton), false)
}

func ProvideValue[T any](c *Container, value T, opts ...ProviderOption) error {
	cfg := newProviderConfig(opts)
	key := keyFor[T](cfg)

	if err := c.internal.RegisterValue(key, value, false); err != nil {
		if errors.Is(err, container.ErrDuplicate) {
			return errDuplicateService(key)
		}
		return err
	}
	return nil
}

// ProvideHostedService registers a service every Host in a scope starts and
// stops. Hosted services are scoped by default; register several services of
// the same type with WithName. Hosts start them in registration order.
func ProvideHostedService[T HostedService](c *Container, provider Provider[T], opts ...ProviderOption) error {
	cfg := newProviderConfig(opts)
	return register(c, keyFor[T](cfg), adapt(c, provider), cfg.lifetimeOr(Scoped), true)
}

func MustProvide[T any](c *Container, provider Provider[T], opts ...ProviderOption) {
	if err := Provide(c, provider, opts...); err != nil {
		panic(err)
	}
}

func MustProvideValue[T any](c *Container, value T, opts ...ProviderOption) {
	if err := ProvideValue(c, value, opts...); err != nil {
		panic(err)
	}
}

func MustProvideHostedService[T HostedService](c *Container, provider Provider[T], opts ...ProviderOption) {
	if err := ProvideHostedService(c, provider, opts...); err != nil {
		panic(err)
	}
}

func WithName(name string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.name = name
	}
}

func WithLifetime(lifetime Lifetime) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.lifetime = lifetime
		cfg.lifetimeSet = true
	}
}

func register(c *Container, key string, provider container.ProviderFunc, lifetime Lifetime, hosted bool) error {
	if err := c.internal.Register(key, provider, lifetime, hosted); err != nil {
		if errors.Is(err, container.ErrDuplicate) {
			return errDuplicateService(key)
		}
		return err
	}
	return nil
}

func adapt[T any](c *Container, provider Provider[T]) container.ProviderFunc {
	return func(ctx context.Context, r container.Resolver) (any, error) {
		return provider(ctx, c.wrap(r))
	}
}
