package scopehost

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/danpasecinic/scopehost/internal/lifecycle"
)

// BackgroundErrorBehavior decides what a BackgroundService does when its
// work function fails.
type BackgroundErrorBehavior uint8

const (
	// StopScope logs the failure and requests a stop of the scope.
	StopScope BackgroundErrorBehavior = iota
	// IgnoreError logs the failure and leaves the scope running. The work is
	// not restarted.
	IgnoreError
)

// BackgroundService is a HostedService that runs one long-lived function for
// as long as its scope is up. The function's context is cancelled by Stop.
type BackgroundService struct {
	name     string
	execute  func(ctx context.Context) error
	lifetime *ScopeLifetime
	behavior BackgroundErrorBehavior
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

type BackgroundOption func(*BackgroundService)

func WithErrorBehavior(b BackgroundErrorBehavior) BackgroundOption {
	return func(s *BackgroundService) {
		s.behavior = b
	}
}

func WithBackgroundLogger(logger *slog.Logger) BackgroundOption {
	return func(s *BackgroundService) {
		s.logger = logger
	}
}

func NewBackgroundService(
	name string,
	lt *ScopeLifetime,
	execute func(ctx context.Context) error,
	opts ...BackgroundOption,
) *BackgroundService {
	s := &BackgroundService{
		name:     name,
		execute:  execute,
		lifetime: lt,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the work function and returns immediately. The work keeps
// the values of ctx but not its cancellation.
func (s *BackgroundService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx, s.done)
	return nil
}

func (s *BackgroundService) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	err := lifecycle.Protect(func() error { return s.execute(ctx) })
	if err == nil || (errors.Is(err, context.Canceled) && ctx.Err() != nil) {
		return
	}

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	s.logger.Error("background service failed", "service", s.name, "error", err)
	if s.behavior == StopScope && s.lifetime != nil {
		s.lifetime.RequestStop()
	}
}

// Stop cancels the work function and waits for it to return or for ctx to
// end, whichever comes first.
func (s *BackgroundService) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the failure of the work function, if it failed.
func (s *BackgroundService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
