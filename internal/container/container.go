package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danpasecinic/scopehost/internal/scope"
)

var (
	ErrNotFound       = errors.New("service not found")
	ErrCircular       = errors.New("circular resolution")
	ErrDuplicate      = errors.New("service already registered")
	ErrClosed         = errors.New("scope closed")
	ErrScopedFromRoot = errors.New("scoped service resolved from root")
)

type ResolveHook func(key string, duration time.Duration, err error)

type Container struct {
	registry *Registry
	logger   *slog.Logger
	hooks    []ResolveHook

	singletons *instanceCache
}

type Config struct {
	Logger    *slog.Logger
	OnResolve []ResolveHook
}

func New(cfg *Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Container{
		registry:   NewRegistry(),
		logger:     logger,
		hooks:      cfg.OnResolve,
		singletons: newInstanceCache(),
	}
}

func (c *Container) Register(key string, provider ProviderFunc, lifetime scope.Lifetime, hosted bool) error {
	if c.registry.Has(key) {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}

	c.registry.Register(&ServiceEntry{
		Key:      key,
		Provider: provider,
		Lifetime: lifetime,
		Hosted:   hosted,
	})
	return nil
}

func (c *Container) RegisterValue(key string, value any, hosted bool) error {
	if c.registry.Has(key) {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}

	c.registry.Register(&ServiceEntry{
		Key:      key,
		Lifetime: scope.Singleton,
		Hosted:   hosted,
		Value:    value,
		HasValue: true,
	})
	return nil
}

// Replace swaps the registration for key, keeping its registration position.
// Instances already created for the old registration are not affected.
func (c *Container) Replace(key string, provider ProviderFunc, lifetime scope.Lifetime, hosted bool) {
	c.registry.Register(&ServiceEntry{
		Key:      key,
		Provider: provider,
		Lifetime: lifetime,
		Hosted:   hosted,
	})
	c.singletons.forget(key)
}

func (c *Container) ReplaceValue(key string, value any, hosted bool) {
	c.registry.Register(&ServiceEntry{
		Key:      key,
		Lifetime: scope.Singleton,
		Hosted:   hosted,
		Value:    value,
		HasValue: true,
	})
	c.singletons.forget(key)
}

func (c *Container) Has(key string) bool {
	return c.registry.Has(key)
}

func (c *Container) Keys() []string {
	return c.registry.Keys()
}

func (c *Container) Size() int {
	return c.registry.Size()
}

func (c *Container) Entry(key string) (ServiceEntry, bool) {
	entry, ok := c.registry.Get(key)
	if !ok {
		return ServiceEntry{}, false
	}
	return *entry, true
}

func (c *Container) Entries() []ServiceEntry {
	return c.registry.Entries()
}

func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Resolve resolves key against the root. Scoped registrations cannot be
// resolved here.
func (c *Container) Resolve(ctx context.Context, key string) (any, error) {
	start := time.Now()
	instance, err := c.resolve(ctx, key, nil)
	c.callResolveHooks(key, time.Since(start), err)
	return instance, err
}

func (c *Container) NewScope() *Scope {
	return newScope(c)
}

// Close disposes singletons created by the container, newest first.
func (c *Container) Close(ctx context.Context) error {
	return c.singletons.dispose(ctx, c.logger)
}

func (c *Container) callResolveHooks(key string, duration time.Duration, err error) {
	for _, hook := range c.hooks {
		hook(key, duration, err)
	}
}
