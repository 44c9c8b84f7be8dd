package scopehost_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/scopehost"
)

func TestHost_StartStopOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := scopehost.New()
	addService(t, c, newService("a", rec))
	addService(t, c, newService("b", rec))

	host, lt := newHost(t, c)

	var started, stopped atomic.Int32
	lt.Started().Register(func() { started.Add(1) })
	lt.Stopped().Register(func() { stopped.Add(1) })

	ctx := context.Background()
	require.NoError(t, host.Start(ctx))
	require.NoError(t, host.Stop(ctx))

	assert.Equal(t, []string{"a.start", "b.start", "b.stop", "a.stop"}, rec.Calls())
	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, int32(1), stopped.Load())
	assert.True(t, lt.Stopping().Triggered())
}

func TestHost_LifecyclePhases(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := scopehost.New()
	addLifecycleService(t, c, newLifecycleService("a", rec))
	addService(t, c, newService("plain", rec))
	addLifecycleService(t, c, newLifecycleService("b", rec))

	host, lt := newHost(t, c)
	lt.Stopping().Register(func() { rec.add("signal.stopping") })

	ctx := context.Background()
	require.NoError(t, host.Start(ctx))
	require.NoError(t, host.Stop(ctx))

	assert.Equal(t, []string{
		"a.starting", "b.starting",
		"a.start", "plain.start", "b.start",
		"a.started", "b.started",
		"b.stopping", "a.stopping",
		"signal.stopping",
		"b.stop", "plain.stop", "a.stop",
		"b.stopped", "a.stopped",
	}, rec.Calls())
}

func TestHost_StopAggregatesFailures(t *testing.T) {
	t.Parallel()

	errA := errors.New("a failed")
	errC := errors.New("c failed")
	rec := &recorder{}
	c := scopehost.New()
	addService(t, c, newService("a", rec).failOn(scopehost.PhaseStop, errA))
	addService(t, c, newService("b", rec))
	addService(t, c, newService("c", rec).failOn(scopehost.PhaseStop, errC))

	host, lt := newHost(t, c)
	ctx := context.Background()
	require.NoError(t, host.Start(ctx))

	err := host.Stop(ctx)

	var agg *scopehost.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, []error{errC, errA}, agg.Errors)
	assert.Contains(t, rec.Calls(), "b.stop")
	assert.True(t, lt.Stopped().Triggered())
	assert.True(t, scopehost.IsAggregate(err))
}

func TestHost_SingleFailureReturnedAsIs(t *testing.T) {
	t.Parallel()

	errB := errors.New("b failed")
	rec := &recorder{}
	c := scopehost.New()
	addService(t, c, newService("a", rec))
	addService(t, c, newService("b", rec).failOn(scopehost.PhaseStart, errB))

	host, lt := newHost(t, c)

	err := host.Start(context.Background())
	assert.Same(t, errB, err)
	assert.False(t, lt.Started().Triggered())
	assert.False(t, scopehost.IsAggregate(err))
}

func TestHost_StartupTimeout(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	svc := newService("slow", rec)
	svc.start = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	c := scopehost.New(scopehost.WithStartupTimeout(10 * time.Millisecond))
	addService(t, c, svc)
	host, _ := newHost(t, c)

	begin := time.Now()
	err := host.Start(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), time.Second)
}

func TestHost_ShutdownTimeout(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	svc := newService("slow", rec)
	svc.stop = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	c := scopehost.New(scopehost.WithShutdownTimeout(10 * time.Millisecond))
	addService(t, c, svc)
	host, _ := newHost(t, c)

	require.NoError(t, host.Start(context.Background()))
	assert.ErrorIs(t, host.Stop(context.Background()), context.DeadlineExceeded)
}

func TestHost_SequentialStartingAbortsButStartDoesNot(t *testing.T) {
	t.Parallel()

	errA := errors.New("a starting failed")
	rec := &recorder{}
	a := newLifecycleService("a", rec)
	a.failOn(scopehost.PhaseStarting, errA)
	b := newLifecycleService("b", rec)

	c := scopehost.New()
	addLifecycleService(t, c, a)
	addLifecycleService(t, c, b)
	host, lt := newHost(t, c)

	err := host.Start(context.Background())
	assert.Same(t, errA, err)

	calls := rec.Calls()
	assert.NotContains(t, calls, "b.starting")
	assert.Equal(t, []string{"a.starting", "a.start", "b.start", "a.started", "b.started"}, calls)
	assert.False(t, lt.Started().Triggered())
}

func TestHost_ConcurrentStartingDoesNotAbort(t *testing.T) {
	t.Parallel()

	errA := errors.New("a starting failed")
	rec := &recorder{}
	a := newLifecycleService("a", rec)
	a.failOn(scopehost.PhaseStarting, errA)
	b := newLifecycleService("b", rec)

	c := scopehost.New(scopehost.WithStartConcurrently())
	addLifecycleService(t, c, a)
	addLifecycleService(t, c, b)
	host, _ := newHost(t, c)

	err := host.Start(context.Background())
	assert.Same(t, errA, err)
	assert.Contains(t, rec.Calls(), "b.starting")
}

func TestHost_ConcurrentStartRunsInParallel(t *testing.T) {
	t.Parallel()

	const n = 4
	var arrived atomic.Int32
	release := make(chan struct{})
	rec := &recorder{}

	c := scopehost.New(scopehost.WithStartConcurrently(), scopehost.WithStopConcurrently())
	for _, name := range []string{"a", "b", "c", "d"} {
		svc := newService(name, rec)
		svc.start = func(ctx context.Context) error {
			if arrived.Add(1) == n {
				close(release)
			}
			select {
			case <-release:
				return nil
			case <-time.After(2 * time.Second):
				return errors.New("services did not start concurrently")
			}
		}
		addService(t, c, svc)
	}

	host, _ := newHost(t, c)
	require.NoError(t, host.Start(context.Background()))
	require.NoError(t, host.Stop(context.Background()))
	assert.Len(t, rec.Calls(), 2*n)
}

func TestHost_StopWithoutStart(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := scopehost.New()
	addService(t, c, newService("a", rec))
	host, lt := newHost(t, c)

	require.NoError(t, host.Stop(context.Background()))

	assert.Empty(t, rec.Calls())
	assert.True(t, lt.Stopping().Triggered())
	assert.True(t, lt.Stopped().Triggered())
	assert.False(t, lt.Started().Triggered())
}

type hostLifetimeFunc struct {
	wait   func(ctx context.Context) error
	notify func(ctx context.Context) error
}

func (h hostLifetimeFunc) WaitForStart(ctx context.Context) error {
	if h.wait == nil {
		return nil
	}
	return h.wait(ctx)
}

func (h hostLifetimeFunc) NotifyStopping(ctx context.Context) error {
	if h.notify == nil {
		return nil
	}
	return h.notify(ctx)
}

func TestHost_WaitForStartFailureAbortsStartup(t *testing.T) {
	t.Parallel()

	errWait := errors.New("not ready")
	rec := &recorder{}
	c := scopehost.New()
	addService(t, c, newService("a", rec))
	require.NoError(t, scopehost.Replace(c, func(ctx context.Context, r scopehost.Resolver) (scopehost.HostLifetime, error) {
		return hostLifetimeFunc{wait: func(context.Context) error { return errWait }}, nil
	}))

	host, _ := newHost(t, c)
	err := host.Start(context.Background())

	assert.Same(t, errWait, err)
	assert.Empty(t, rec.Calls())
}

func TestHost_NotifyStoppingFailureIsCollected(t *testing.T) {
	t.Parallel()

	errNotify := errors.New("deregistration failed")
	errStop := errors.New("stop failed")
	rec := &recorder{}
	c := scopehost.New()
	addService(t, c, newService("a", rec).failOn(scopehost.PhaseStop, errStop))
	require.NoError(t, scopehost.Replace(c, func(ctx context.Context, r scopehost.Resolver) (scopehost.HostLifetime, error) {
		return hostLifetimeFunc{notify: func(context.Context) error { return errNotify }}, nil
	}))

	host, _ := newHost(t, c)
	require.NoError(t, host.Start(context.Background()))

	var agg *scopehost.AggregateError
	require.ErrorAs(t, host.Stop(context.Background()), &agg)
	assert.Equal(t, []error{errStop, errNotify}, agg.Errors)
}

func TestHost_RequestStopCancelsStartup(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := scopehost.New()
	svc := newService("a", rec)
	addService(t, c, svc)
	host, lt := newHost(t, c)

	svc.start = func(ctx context.Context) error {
		lt.RequestStop()
		return ctx.Err()
	}

	assert.ErrorIs(t, host.Start(context.Background()), context.Canceled)
}

func TestHost_StartAfterStopRequestedIsCancelled(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := scopehost.New()
	addService(t, c, newService("a", rec))
	host, lt := newHost(t, c)

	lt.RequestStop()

	assert.ErrorIs(t, host.Start(context.Background()), context.Canceled)
	assert.Empty(t, rec.Calls())
}

func TestHost_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	svc := newService("a", rec)
	svc.start = func(context.Context) error { panic("boom") }

	c := scopehost.New()
	addService(t, c, svc)
	addService(t, c, newService("b", rec))
	host, _ := newHost(t, c)

	err := host.Start(context.Background())
	require.True(t, scopehost.IsPanic(err))

	var pe *scopehost.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.Contains(t, rec.Calls(), "b.start")
}

func TestHost_ResolutionFailure(t *testing.T) {
	t.Parallel()

	c := scopehost.New()
	require.NoError(t, scopehost.ProvideHostedService(c,
		func(ctx context.Context, r scopehost.Resolver) (*testService, error) {
			return nil, errors.New("cannot build")
		},
	))
	host, _ := newHost(t, c)

	err := host.Start(context.Background())
	assert.True(t, scopehost.IsResolutionFailed(err))
	assert.True(t, scopehost.IsProviderFailed(err))

	// never resolved, so Stop only requests a stop
	require.NoError(t, host.Stop(context.Background()))
}

func TestHost_ClassificationIsCached(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	var builds atomic.Int32
	c := scopehost.New()
	require.NoError(t, scopehost.ProvideHostedService(c,
		func(ctx context.Context, r scopehost.Resolver) (*lifecycleService, error) {
			builds.Add(1)
			return newLifecycleService("a", rec), nil
		},
		scopehost.WithLifetime(scopehost.Transient),
	))
	host, _ := newHost(t, c)

	ctx := context.Background()
	require.NoError(t, host.Start(ctx))
	require.NoError(t, host.Stop(ctx))

	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, []string{
		"a.starting", "a.start", "a.started",
		"a.stopping", "a.stop", "a.stopped",
	}, rec.Calls())
}

func TestHost_RunStopsOnRequest(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := scopehost.New()
	addService(t, c, newService("a", rec))
	host, lt := newHost(t, c)

	done := make(chan error, 1)
	go func() { done <- host.Run(context.Background()) }()

	select {
	case <-lt.Started().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("host did not start")
	}
	lt.RequestStop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{"a.start", "a.stop"}, rec.Calls())
	assert.True(t, lt.Stopped().Triggered())
}

func TestHost_RunCancelledContextStopsGracefully(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	svc := newService("a", rec)
	var stopCancelled atomic.Bool
	svc.stop = func(ctx context.Context) error {
		stopCancelled.Store(ctx.Err() != nil)
		return nil
	}

	c := scopehost.New()
	addService(t, c, svc)
	host, lt := newHost(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- host.Run(ctx) }()

	<-lt.Started().Done()
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, []string{"a.start", "a.stop"}, rec.Calls())
	assert.False(t, stopCancelled.Load())
}

func TestHost_PhaseObserver(t *testing.T) {
	t.Parallel()

	type event struct {
		service string
		phase   scopehost.Phase
		failed  bool
	}
	var events []event
	errB := errors.New("b")

	rec := &recorder{}
	c := scopehost.New(scopehost.WithPhaseObserver(
		func(service string, phase scopehost.Phase, _ time.Duration, err error) {
			events = append(events, event{service, phase, err != nil})
		},
	))
	addService(t, c, newService("a", rec))
	addService(t, c, newService("b", rec).failOn(scopehost.PhaseStart, errB))
	host, _ := newHost(t, c)

	_ = host.Start(context.Background())

	require.Len(t, events, 2)
	assert.Equal(t, scopehost.PhaseStart, events[0].phase)
	assert.False(t, events[0].failed)
	assert.True(t, events[1].failed)
	assert.Contains(t, events[1].service, "#b")
}

func TestHost_OnePerScope(t *testing.T) {
	t.Parallel()

	c := scopehost.New()
	ctx := context.Background()
	s1, s2 := c.NewScope(), c.NewScope()

	h1, err := s1.Host(ctx)
	require.NoError(t, err)
	again, err := s1.Host(ctx)
	require.NoError(t, err)
	h2, err := s2.Host(ctx)
	require.NoError(t, err)

	assert.Same(t, h1, again)
	assert.NotSame(t, h1, h2)
	assert.NotSame(t, h1.Lifetime(), h2.Lifetime())
	assert.Equal(t, s1.ID(), h1.Services().(*scopehost.Scope).ID())
}

func TestHost_NotResolvableFromRoot(t *testing.T) {
	t.Parallel()

	type rootUser struct{}

	c := scopehost.New()
	require.NoError(t, scopehost.Provide(c, func(ctx context.Context, r scopehost.Resolver) (*rootUser, error) {
		if _, err := scopehost.Invoke[*scopehost.Host](ctx, r); err != nil {
			return nil, err
		}
		return &rootUser{}, nil
	}))

	_, err := scopehost.Invoke[*rootUser](context.Background(), c.NewScope())
	assert.True(t, scopehost.IsProviderFailed(err))
}
