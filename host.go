package scopehost

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/danpasecinic/scopehost/internal/lifecycle"
	"github.com/danpasecinic/scopehost/internal/telemetry"
)

const (
	startFailedMessage = "one or more hosted services failed to start"
	stopFailedMessage  = "one or more hosted services failed to stop"
)

// Host starts and stops the hosted services of one scope.
//
// Start runs Starting, Start and Started; Stop runs Stopping, Stop and Stopped
// in reverse registration order. Every service receives its Start and Stop
// call even when others fail. With sequential startup the first Starting
// failure skips the remaining Starting calls. Failures are returned as-is
// when there is one and as an *AggregateError otherwise.
type Host struct {
	scope        *Scope
	lifetime     *ScopeLifetime
	hostLifetime HostLifetime
	options      HostOptions
	logger       *slog.Logger
	tracer       *telemetry.Tracer
	onPhase      []PhaseHook

	mu        sync.Mutex
	resolved  bool
	services  []*hostedService
	lifecycle []*hostedService
}

func newHost(ctx context.Context, s *Scope) (*Host, error) {
	lt, err := Invoke[*ScopeLifetime](ctx, s)
	if err != nil {
		return nil, err
	}
	hl, err := Invoke[HostLifetime](ctx, s)
	if err != nil {
		return nil, err
	}
	if hl == nil {
		hl = NopHostLifetime{}
	}

	cfg := s.container.config
	return &Host{
		scope:        s,
		lifetime:     lt,
		hostLifetime: hl,
		options:      cfg.host,
		logger:       cfg.logger.With("scope", s.ID()),
		tracer:       s.container.tracer,
		onPhase:      cfg.onPhase,
	}, nil
}

// Services returns the scope the host resolves its services from.
func (h *Host) Services() Resolver {
	return h.scope
}

// Lifetime returns the Started, Stopping and Stopped events of the host's scope.
func (h *Host) Lifetime() *ScopeLifetime {
	return h.lifetime
}

// Start brings up every hosted service. The context passed to services is
// cancelled when ctx is, when StartupTimeout elapses, or when the scope is
// asked to stop. Started fires only when no phase call failed.
func (h *Host) Start(ctx context.Context) (err error) {
	h.logger.Debug("scoped host starting")

	ctx, span := h.tracer.Start(ctx, telemetry.SpanHostStart, telemetry.ScopeID(h.scope.ID()))
	defer func() { telemetry.End(span, err) }()

	ctx, cancel := h.startContext(ctx)
	defer cancel()

	err = lifecycle.Protect(func() error { return h.hostLifetime.WaitForStart(ctx) })
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	services, lifecycleServices, err := h.resolve(ctx)
	if err != nil {
		h.logger.Error("hosting failed to start", "error", err)
		return err
	}
	span.SetAttributes(telemetry.Count(len(services)))

	var acc lifecycle.Accumulator
	concurrent := h.options.StartConcurrently

	h.runPhase(ctx, PhaseStarting, lifecycleServices, lifecycle.Policy{
		Concurrent:        concurrent,
		AbortOnFirstError: !concurrent,
	}, &acc)
	h.runPhase(ctx, PhaseStart, services, lifecycle.Policy{Concurrent: concurrent}, &acc)
	h.runPhase(ctx, PhaseStarted, lifecycleServices, lifecycle.Policy{Concurrent: concurrent}, &acc)

	if err := acc.Err(startFailedMessage); err != nil {
		h.logger.Error("hosted service startup faulted", "error", err)
		return err
	}

	h.lifetime.NotifyStarted()
	h.logger.Debug("scoped host started", "services", len(services))
	return nil
}

// Stop shuts down the hosted services in reverse order. Stop never skips a
// service: every failure is collected and returned once all calls are done.
// A host that never resolved its services only requests a stop of its scope.
func (h *Host) Stop(ctx context.Context) (err error) {
	h.logger.Debug("scoped host stopping")

	ctx, span := h.tracer.Start(ctx, telemetry.SpanHostStop, telemetry.ScopeID(h.scope.ID()))
	defer func() { telemetry.End(span, err) }()

	ctx, cancel := withTimeout(ctx, h.options.ShutdownTimeout)
	defer cancel()

	var acc lifecycle.Accumulator

	services, lifecycleServices, resolved := h.resolvedServices()
	if !resolved {
		h.lifetime.RequestStop()
	} else {
		services = lifecycle.Reversed(services)
		lifecycleServices = lifecycle.Reversed(lifecycleServices)
		policy := lifecycle.Policy{Concurrent: h.options.StopConcurrently}

		h.runPhase(ctx, PhaseStopping, lifecycleServices, policy, &acc)
		h.lifetime.RequestStop()
		h.runPhase(ctx, PhaseStop, services, policy, &acc)
		h.runPhase(ctx, PhaseStopped, lifecycleServices, policy, &acc)
	}

	h.lifetime.NotifyStopped()

	acc.Add(lifecycle.Protect(func() error { return h.hostLifetime.NotifyStopping(ctx) }))

	if err := acc.Err(stopFailedMessage); err != nil {
		h.logger.Error("hosted service shutdown faulted", "error", err)
		return err
	}

	h.logger.Debug("scoped host stopped")
	return nil
}

// Run starts the host and blocks until the scope is asked to stop, then stops
// it. Cancelling ctx after a successful start requests the stop.
func (h *Host) Run(ctx context.Context) error {
	if err := h.Start(ctx); err != nil {
		return err
	}
	return h.WaitForShutdown(ctx)
}

// WaitForShutdown blocks until the scope's Stopping signal fires, then calls
// Stop with a fresh context so a cancelled ctx never cuts the shutdown short.
func (h *Host) WaitForShutdown(ctx context.Context) error {
	stop := context.AfterFunc(ctx, h.lifetime.RequestStop)
	defer stop()

	<-h.lifetime.Stopping().Done()

	return h.Stop(context.Background())
}

func (h *Host) startContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ctx, cancelTimeout := withTimeout(ctx, h.options.StartupTimeout)
	reg := h.lifetime.Stopping().Register(cancel)

	return ctx, func() {
		reg.Unregister()
		cancelTimeout()
		cancel()
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout < 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// resolve resolves and classifies the hosted services on first use. Later
// calls return the cached lists.
func (h *Host) resolve(ctx context.Context) ([]*hostedService, []*hostedService, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.resolved {
		return h.services, h.lifecycle, nil
	}

	services, err := h.scope.hostedServices(ctx)
	if err != nil {
		return nil, nil, newError(ErrCodeResolutionFailed, "failed to resolve hosted services", err)
	}

	for _, svc := range services {
		if svc.lifecycle != nil {
			h.lifecycle = append(h.lifecycle, svc)
		}
	}
	h.services = services
	h.resolved = true
	return h.services, h.lifecycle, nil
}

func (h *Host) resolvedServices() ([]*hostedService, []*hostedService, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.services, h.lifecycle, h.resolved
}

func (h *Host) runPhase(
	ctx context.Context,
	phase Phase,
	targets []*hostedService,
	policy lifecycle.Policy,
	acc *lifecycle.Accumulator,
) {
	lifecycle.ForEach(ctx, targets, policy, acc, func(ctx context.Context, svc *hostedService) error {
		return h.callPhase(ctx, phase, svc)
	})
}

func (h *Host) callPhase(ctx context.Context, phase Phase, svc *hostedService) (err error) {
	ctx, span := h.tracer.Start(ctx, telemetry.SpanPhase,
		telemetry.ScopeID(h.scope.ID()),
		telemetry.Service(svc.name),
		telemetry.Phase(phase.String()),
	)

	start := time.Now()
	err = lifecycle.Protect(func() error { return svc.call(ctx, phase) })
	duration := time.Since(start)

	telemetry.End(span, err)
	for _, hook := range h.onPhase {
		hook(svc.name, phase, duration, err)
	}

	if err != nil {
		h.logger.Debug("hosted service phase failed",
			"service", svc.name,
			"phase", phase.String(),
			"error", err,
		)
	}
	return err
}
