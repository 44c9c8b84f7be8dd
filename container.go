package scopehost

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/danpasecinic/scopehost/internal/container"
	"github.com/danpasecinic/scopehost/internal/telemetry"
)

// Container holds service registrations and creates the scopes hosts run in.
type Container struct {
	internal *container.Container
	config   *containerConfig
	tracer   *telemetry.Tracer
}

type containerConfig struct {
	logger         *slog.Logger
	host           HostOptions
	onPhase        []PhaseHook
	onResolve      []ResolveHook
	onScope        []ScopeHook
	tracerProvider trace.TracerProvider
}

func New(opts ...Option) *Container {
	cfg := &containerConfig{
		logger: slog.Default(),
		host:   DefaultHostOptions(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	hooks := make([]container.ResolveHook, 0, len(cfg.onResolve))
	for _, hook := range cfg.onResolve {
		hooks = append(hooks, container.ResolveHook(hook))
	}

	c := &Container{
		internal: container.New(
			&container.Config{
				Logger:    cfg.logger,
				OnResolve: hooks,
			},
		),
		config: cfg,
		tracer: telemetry.NewTracer(cfg.tracerProvider),
	}
	c.registerHost()
	return c
}

// registerHost adds the per-scope host and its lifetimes. Each can be
// replaced; a replacement HostLifetime is the usual way to gate startup.
func (c *Container) registerHost() {
	_ = Provide(c, func(ctx context.Context, r Resolver) (*ScopeLifetime, error) {
		return NewScopeLifetime(c.config.logger), nil
	}, WithLifetime(Scoped))

	_ = Provide(c, func(ctx context.Context, r Resolver) (HostLifetime, error) {
		return NopHostLifetime{}, nil
	}, WithLifetime(Scoped))

	_ = Provide(c, func(ctx context.Context, r Resolver) (*Host, error) {
		s, ok := r.(*Scope)
		if !ok {
			return nil, newError(ErrCodeResolutionFailed, "a host can only be resolved from a scope", nil)
		}
		return newHost(ctx, s)
	}, WithLifetime(Scoped))
}

func (c *Container) Size() int {
	return c.internal.Size()
}

// Keys returns every registered key in registration order.
func (c *Container) Keys() []string {
	return c.internal.Keys()
}

func (c *Container) Logger() *slog.Logger {
	return c.config.logger
}

func (c *Container) HostOptions() HostOptions {
	return c.config.host
}

func (c *Container) NewScope() *Scope {
	return &Scope{internal: c.internal.NewScope(), container: c}
}

// Close disposes the singletons the container created.
func (c *Container) Close(ctx context.Context) error {
	return c.internal.Close(ctx)
}

func (c *Container) wrap(r container.Resolver) Resolver {
	if s, ok := r.(*container.Scope); ok {
		return &Scope{internal: s, container: c}
	}
	return &resolverAdapter{container: c}
}
