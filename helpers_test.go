package scopehost_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/scopehost"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type testService struct {
	name string
	rec  *recorder
	errs map[scopehost.Phase]error

	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

func newService(name string, rec *recorder) *testService {
	return &testService{name: name, rec: rec, errs: map[scopehost.Phase]error{}}
}

func (s *testService) failOn(phase scopehost.Phase, err error) *testService {
	s.errs[phase] = err
	return s
}

func (s *testService) phase(ctx context.Context, p scopehost.Phase, fn func(context.Context) error) error {
	s.rec.add(s.name + "." + p.String())
	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return s.errs[p]
}

func (s *testService) Start(ctx context.Context) error {
	return s.phase(ctx, scopehost.PhaseStart, s.start)
}

func (s *testService) Stop(ctx context.Context) error {
	return s.phase(ctx, scopehost.PhaseStop, s.stop)
}

type lifecycleService struct {
	*testService
}

func newLifecycleService(name string, rec *recorder) *lifecycleService {
	return &lifecycleService{testService: newService(name, rec)}
}

func (s *lifecycleService) Starting(ctx context.Context) error {
	return s.phase(ctx, scopehost.PhaseStarting, nil)
}

func (s *lifecycleService) Started(ctx context.Context) error {
	return s.phase(ctx, scopehost.PhaseStarted, nil)
}

func (s *lifecycleService) Stopping(ctx context.Context) error {
	return s.phase(ctx, scopehost.PhaseStopping, nil)
}

func (s *lifecycleService) Stopped(ctx context.Context) error {
	return s.phase(ctx, scopehost.PhaseStopped, nil)
}

func addService(t *testing.T, c *scopehost.Container, svc *testService) {
	t.Helper()
	require.NoError(t, scopehost.ProvideHostedService(c,
		func(ctx context.Context, r scopehost.Resolver) (*testService, error) {
			return svc, nil
		},
		scopehost.WithName(svc.name),
	))
}

func addLifecycleService(t *testing.T, c *scopehost.Container, svc *lifecycleService) {
	t.Helper()
	require.NoError(t, scopehost.ProvideHostedService(c,
		func(ctx context.Context, r scopehost.Resolver) (*lifecycleService, error) {
			return svc, nil
		},
		scopehost.WithName(svc.name),
	))
}

func newHost(t *testing.T, c *scopehost.Container) (*scopehost.Host, *scopehost.ScopeLifetime) {
	t.Helper()

	s := c.NewScope()
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	host, err := s.Host(context.Background())
	require.NoError(t, err)
	return host, host.Lifetime()
}
