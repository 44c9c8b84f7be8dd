// Package demo assembles the container run by the scopehost command: a cron
// scheduler, a heartbeat worker and a warm-up gate in every scope.
package demo

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/danpasecinic/scopehost"
	"github.com/danpasecinic/scopehost/config"
)

// HeartbeatInterval is how often the heartbeat worker logs.
var HeartbeatInterval = 5 * time.Second

// Build returns a container whose scopes each run the demo services.
func Build(cfg *config.Config, logger *slog.Logger, opts ...scopehost.Option) (*scopehost.Container, error) {
	base := []scopehost.Option{
		scopehost.WithLogger(logger),
		scopehost.WithHostOptions(cfg.HostOptions()),
	}
	c := scopehost.New(append(base, opts...)...)

	err := scopehost.ProvideHostedService(c, func(ctx context.Context, r scopehost.Resolver) (*Warmup, error) {
		return &Warmup{}, nil
	})
	if err != nil {
		return nil, err
	}

	err = scopehost.ProvideHostedService(c, func(ctx context.Context, r scopehost.Resolver) (*CronService, error) {
		svc := NewCronService(logger)
		if err := svc.Schedule("@every 10s", "tick", func(context.Context) error {
			logger.Info("tick")
			return nil
		}); err != nil {
			return nil, err
		}
		return svc, nil
	})
	if err != nil {
		return nil, err
	}

	err = scopehost.ProvideHostedService(c, func(ctx context.Context, r scopehost.Resolver) (*scopehost.BackgroundService, error) {
		lt, err := scopehost.Invoke[*scopehost.ScopeLifetime](ctx, r)
		if err != nil {
			return nil, err
		}
		return scopehost.NewBackgroundService("heartbeat", lt, heartbeat(logger),
			scopehost.WithBackgroundLogger(logger),
		), nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func heartbeat(logger *slog.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(HeartbeatInterval)
		defer ticker.Stop()

		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				logger.Debug("heartbeat", "beat", n)
			}
		}
	}
}

// Warmup reports not ready until every other hosted service has started.
type Warmup struct {
	ready atomic.Bool
}

func (w *Warmup) Starting(context.Context) error { return nil }
func (w *Warmup) Start(context.Context) error    { return nil }

func (w *Warmup) Started(context.Context) error {
	w.ready.Store(true)
	return nil
}

func (w *Warmup) Stopping(context.Context) error {
	w.ready.Store(false)
	return nil
}

func (w *Warmup) Stop(context.Context) error    { return nil }
func (w *Warmup) Stopped(context.Context) error { return nil }

func (w *Warmup) ReadinessCheck(context.Context) error {
	if !w.ready.Load() {
		return errWarmingUp
	}
	return nil
}
