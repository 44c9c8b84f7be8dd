// Package scopehost runs groups of hosted services inside dependency-injection
// scopes and takes them through an ordered startup and shutdown.
//
// # Quick Start
//
// Register hosted services on a container and run a scope:
//
//	c := scopehost.New(scopehost.WithShutdownTimeout(10 * time.Second))
//
//	scopehost.ProvideHostedService(c, func(ctx context.Context, r scopehost.Resolver) (*Poller, error) {
//	    return NewPoller(), nil
//	})
//
//	f := scopehost.NewScopeFactory(c)
//	err := f.RunScope(ctx, nil)
//
// RunScope creates a child scope, resolves its *Host, starts every hosted
// service, waits until the scope is asked to stop (or ctx is cancelled), stops
// the services and closes the scope.
//
// # Hosted Services
//
// A hosted service implements Start and Stop:
//
//	type HostedService interface {
//	    Start(ctx context.Context) error
//	    Stop(ctx context.Context) error
//	}
//
// Services that also implement Starting, Started, Stopping and Stopped
// (HostedLifecycleService) are called around Start and Stop. Hosted services
// are scoped by default, so each scope gets its own instances.
//
// # Ordering
//
// Start runs three phases: Starting, Start, Started. Stop runs Stopping,
// Stop, Stopped in the reverse of registration order. By default services are
// called one after another; WithStartConcurrently and WithStopConcurrently call
// them concurrently within each phase.
//
// Every service gets its Start and Stop call even when another service failed.
// The only phase that stops early is Starting with sequential startup: the
// first failure skips the remaining Starting calls.
//
// # Errors
//
// A single failure is returned unchanged. Two or more are returned as an
// *AggregateError whose Errors field lists them in the order they happened:
//
//	var agg *scopehost.AggregateError
//	if errors.As(err, &agg) {
//	    for _, e := range agg.Errors { ... }
//	}
//
// A panicking phase call is recovered and reported as a *PanicError.
//
// # Scope Lifetime
//
// Every scope has a *ScopeLifetime with three one-shot signals:
//
//	lt := scopehost.MustInvoke[*scopehost.ScopeLifetime](ctx, scope)
//	lt.Started().Register(func() { log.Print("up") })
//	<-lt.Stopping().Done()
//	lt.RequestStop()
//
// # Timeouts
//
//	scopehost.New(
//	    scopehost.WithStartupTimeout(5*time.Second),   // default: InfiniteTimeout
//	    scopehost.WithShutdownTimeout(30*time.Second), // default
//	)
//
// When a timeout elapses the context passed to services is cancelled; services
// are expected to return promptly.
//
// # Background Scopes
//
// A ScopeGroup runs several scopes at once and stops them together:
//
//	g := f.NewGroup(ctx)
//	g.Go(setupTenantA)
//	g.Go(setupTenantB)
//	...
//	err := g.Shutdown(5 * time.Second)
//
// # Observers
//
//	c := scopehost.New(
//	    scopehost.WithPhaseObserver(func(svc string, p scopehost.Phase, d time.Duration, err error) {
//	        metrics.RecordPhase(svc, p, d, err)
//	    }),
//	    scopehost.WithTracerProvider(otel.GetTracerProvider()),
//	)
//
// Package metrics provides a ready-made Prometheus observer:
//
//	obs := metrics.NewObserver(prometheus.DefaultRegisterer)
//	c := scopehost.New(obs.Options()...)
//
// Scope observers registered with WithScopeObserver also receive ScopeClosed,
// which follows every ScopeCreated whether or not the host ran cleanly.
package scopehost
