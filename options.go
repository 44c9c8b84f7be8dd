package scopehost

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// InfiniteTimeout disables a startup or shutdown deadline. Any negative
// duration has the same effect.
const InfiniteTimeout time.Duration = -1

const DefaultShutdownTimeout = 30 * time.Second

// HostOptions configures every Host created by a Container.
type HostOptions struct {
	StartConcurrently bool
	StopConcurrently  bool
	StartupTimeout    time.Duration
	ShutdownTimeout   time.Duration
}

func DefaultHostOptions() HostOptions {
	return HostOptions{
		StartupTimeout:  InfiniteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

type Option func(*containerConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

func WithHostOptions(opts HostOptions) Option {
	return func(cfg *containerConfig) {
		cfg.host = opts
	}
}

func WithStartConcurrently() Option {
	return func(cfg *containerConfig) {
		cfg.host.StartConcurrently = true
	}
}

func WithStopConcurrently() Option {
	return func(cfg *containerConfig) {
		cfg.host.StopConcurrently = true
	}
}

func WithStartupTimeout(timeout time.Duration) Option {
	return func(cfg *containerConfig) {
		cfg.host.StartupTimeout = timeout
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(cfg *containerConfig) {
		cfg.host.ShutdownTimeout = timeout
	}
}

func WithPhaseObserver(hook PhaseHook) Option {
	return func(cfg *containerConfig) {
		cfg.onPhase = append(cfg.onPhase, hook)
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *containerConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func WithScopeObserver(hook ScopeHook) Option {
	return func(cfg *containerConfig) {
		cfg.onScope = append(cfg.onScope, hook)
	}
}

// WithTracerProvider records a span for every host Start and Stop and for
// every phase call made on a hosted service.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *containerConfig) {
		cfg.tracerProvider = tp
	}
}
