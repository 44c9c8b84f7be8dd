package scopehost

import (
	"context"
	"errors"
	"sync"
	"time"

	"vawter.tech/stopper"

	"github.com/danpasecinic/scopehost/internal/lifecycle"
)

var ErrGroupStopping = errors.New("scope group is stopping")

// ScopeGroup runs scopes in the background and stops them together.
type ScopeGroup struct {
	factory *ScopeFactory
	parent  context.Context
	sctx    *stopper.Context

	mu     sync.Mutex
	errs   lifecycle.Accumulator
	active int
}

// NewGroup returns a group whose scopes run until ctx is cancelled or the
// group is shut down.
func (f *ScopeFactory) NewGroup(ctx context.Context) *ScopeGroup {
	return &ScopeGroup{
		factory: f,
		parent:  ctx,
		sctx:    stopper.WithContext(ctx),
	}
}

// Go runs a scope in the background. A scope that fails is recorded and
// reported by Shutdown; it does not affect the other scopes of the group.
func (g *ScopeGroup) Go(setup SetupFunc) error {
	if g.sctx.IsStopping() {
		return ErrGroupStopping
	}

	g.mu.Lock()
	g.active++
	g.mu.Unlock()

	accepted := g.sctx.Go(func(sctx *stopper.Context) error {
		ctx, cancel := context.WithCancel(g.parent)
		defer cancel()

		go func() {
			select {
			case <-sctx.Stopping():
				cancel()
			case <-ctx.Done():
			}
		}()

		err := g.factory.RunScope(ctx, setup)

		g.mu.Lock()
		g.active--
		g.errs.Add(err)
		g.mu.Unlock()
		return nil
	})
	if !accepted {
		g.mu.Lock()
		g.active--
		g.mu.Unlock()
		return ErrGroupStopping
	}
	return nil
}

// Active returns the number of scopes that have not returned yet.
func (g *ScopeGroup) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Shutdown asks every running scope to stop and waits for them. Scopes get
// grace to finish before the group's context is cancelled. Scope failures are
// returned as a single error.
func (g *ScopeGroup) Shutdown(grace time.Duration) error {
	g.sctx.Stop(grace)
	if err := g.sctx.Wait(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.errs.Err("one or more scopes failed"); err != nil {
		return errShutdownFailed(err)
	}
	return nil
}
