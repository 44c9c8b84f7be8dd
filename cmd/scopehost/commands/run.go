package commands

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/danpasecinic/scopehost"
	"github.com/danpasecinic/scopehost/config"
	"github.com/danpasecinic/scopehost/internal/demo"
	"github.com/danpasecinic/scopehost/internal/ops"
	"github.com/danpasecinic/scopehost/metrics"
)

func newRunCommand() *cobra.Command {
	var scopes int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scopes until interrupted",
		Long: `Run starts the configured number of scopes and blocks until SIGINT or
SIGTERM. Every scope is then stopped gracefully within the shutdown timeout.

Examples:
  # Run a single scope
  scopehost run

  # Run four scopes with concurrent startup
  SCOPEHOST_HOST_START_CONCURRENTLY=true scopehost run --scopes 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if scopes > 0 {
				cfg.Scopes = scopes
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&scopes, "scopes", 0, "Number of scopes to run (overrides config)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs := metrics.NewObserver(reg)
	hosts := ops.NewRegistry()

	opts := append(obs.Options(), scopehost.WithScopeObserver(func(id string, event scopehost.ScopeEvent) {
		if event == scopehost.ScopeClosed {
			hosts.Remove(id)
		}
	}))

	c, err := demo.Build(cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to close container", "error", err)
		}
	}()

	if err := scopehost.Replace(c, func(ctx context.Context, r scopehost.Resolver) (scopehost.HostLifetime, error) {
		lt, err := scopehost.Invoke[*scopehost.ScopeLifetime](ctx, r)
		if err != nil {
			return nil, err
		}
		return scopehost.NewSignalHostLifetime(lt), nil
	}); err != nil {
		return err
	}

	grace := cfg.Host.ShutdownTimeout
	if grace < 0 {
		grace = scopehost.DefaultShutdownTimeout
	}

	if cfg.Ops.Enabled {
		srv := ops.NewServer(cfg.Ops.Listen, ops.NewRouter(hosts, reg, logger), logger)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil {
				logger.Warn("failed to stop ops server", "error", err)
			}
		}()
	}

	f := scopehost.NewScopeFactory(c)
	f.OnScopeCreated(func(s *scopehost.Scope) {
		host, err := s.Host(ctx)
		if err != nil {
			logger.Error("failed to resolve host", "scope", s.ID(), "error", err)
			return
		}
		hosts.Add(s.ID(), host)
	})

	if cfg.Scopes == 1 {
		return f.RunScope(ctx, nil)
	}

	sigCtx, stop := ossignal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group := f.NewGroup(sigCtx)
	for i := 0; i < cfg.Scopes; i++ {
		if err := group.Go(nil); err != nil {
			return err
		}
	}
	logger.Info("scopes running", "scopes", cfg.Scopes)

	<-sigCtx.Done()
	shutdownStart := time.Now()
	err = group.Shutdown(grace)
	logger.Info("scopes stopped", "duration", time.Since(shutdownStart))
	return err
}
