package scopehost

import (
	"context"
	"log/slog"
	"sync"

	"github.com/danpasecinic/scopehost/internal/lifecycle"
)

// SetupFunc prepares a freshly created scope before its host starts, for
// instance by resolving and configuring scoped services.
type SetupFunc func(ctx context.Context, s *Scope) error

// ScopeFactory runs hosts in child scopes of a Container.
type ScopeFactory struct {
	container *Container
	logger    *slog.Logger

	mu           sync.RWMutex
	onCreated    []func(*Scope)
	onDestroying []func(*Scope)
}

func NewScopeFactory(c *Container) *ScopeFactory {
	return &ScopeFactory{
		container: c,
		logger:    c.config.logger,
	}
}

// OnScopeCreated registers fn to run after setup and before the host starts.
func (f *ScopeFactory) OnScopeCreated(fn func(*Scope)) {
	f.mu.Lock()
	f.onCreated = append(f.onCreated, fn)
	f.mu.Unlock()
}

// OnScopeDestroying registers fn to run after the host stopped cleanly and
// before the scope is closed.
func (f *ScopeFactory) OnScopeDestroying(fn func(*Scope)) {
	f.mu.Lock()
	f.onDestroying = append(f.onDestroying, fn)
	f.mu.Unlock()
}

// RunScope creates a scope, runs setup, and runs the scope's host until the
// scope is asked to stop or ctx is cancelled. The scope is always closed
// before RunScope returns.
func (f *ScopeFactory) RunScope(ctx context.Context, setup SetupFunc) (err error) {
	s := f.container.NewScope()
	created := false
	defer func() {
		if created {
			f.notify(s, ScopeClosed)
		}
		if cerr := s.Close(context.WithoutCancel(ctx)); cerr != nil {
			f.logger.Warn("failed to close scope", "scope", s.ID(), "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	if setup != nil {
		if err := setup(ctx, s); err != nil {
			return errStartupFailed(s.ID(), err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.notify(s, ScopeCreated)
	created = true
	if err := ctx.Err(); err != nil {
		return err
	}

	host, err := s.Host(ctx)
	if err != nil {
		return err
	}
	if err := host.Run(ctx); err != nil {
		return err
	}

	f.notify(s, ScopeDestroying)
	return nil
}

func (f *ScopeFactory) notify(s *Scope, event ScopeEvent) {
	f.mu.RLock()
	var observers []func(*Scope)
	switch event {
	case ScopeCreated:
		observers = append(observers, f.onCreated...)
	case ScopeDestroying:
		observers = append(observers, f.onDestroying...)
	}
	f.mu.RUnlock()

	for _, hook := range f.container.config.onScope {
		f.protect(s, event, func() { hook(s.ID(), event) })
	}
	for _, fn := range observers {
		f.protect(s, event, func() { fn(s) })
	}
}

func (f *ScopeFactory) protect(s *Scope, event ScopeEvent, fn func()) {
	err := lifecycle.Protect(func() error {
		fn()
		return nil
	})
	if err != nil {
		f.logger.Error("scope observer failed",
			"scope", s.ID(),
			"event", event.String(),
			"error", err,
		)
	}
}
