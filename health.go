package scopehost

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	errNotStarted = errors.New("host has not started")
	errStopping   = errors.New("host is stopping")
)

type HealthStatus string

const (
	HealthStatusUp      HealthStatus = "up"
	HealthStatusDown    HealthStatus = "down"
	HealthStatusUnknown HealthStatus = "unknown"
)

type HealthReport struct {
	Name    string
	Status  HealthStatus
	Error   error
	Latency time.Duration
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ReadinessChecker interface {
	ReadinessCheck(ctx context.Context) error
}

// Live fails when any hosted service implementing HealthChecker reports an
// error.
func (h *Host) Live(ctx context.Context) error {
	return firstDown(h.Health(ctx))
}

// Ready fails until the host has started, and afterwards when any hosted
// service implementing ReadinessChecker reports an error.
func (h *Host) Ready(ctx context.Context) error {
	if !h.lifetime.Started().Triggered() {
		return errHealthCheckFailed("host", errNotStarted)
	}
	if h.lifetime.Stopping().Triggered() {
		return errHealthCheckFailed("host", errStopping)
	}

	services, _, _ := h.resolvedServices()
	return firstDown(check(ctx, services, func(ctx context.Context, svc HostedService) (bool, error) {
		rc, ok := svc.(ReadinessChecker)
		if !ok {
			return false, nil
		}
		return true, rc.ReadinessCheck(ctx)
	}))
}

// Health returns one report per hosted service implementing HealthChecker,
// in registration order.
func (h *Host) Health(ctx context.Context) []HealthReport {
	services, _, _ := h.resolvedServices()
	return check(ctx, services, func(ctx context.Context, svc HostedService) (bool, error) {
		hc, ok := svc.(HealthChecker)
		if !ok {
			return false, nil
		}
		return true, hc.HealthCheck(ctx)
	})
}

func check(
	ctx context.Context,
	services []*hostedService,
	probe func(context.Context, HostedService) (bool, error),
) []HealthReport {
	reports := make([]HealthReport, len(services))
	checked := make([]bool, len(services))
	var wg sync.WaitGroup

	for i, svc := range services {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			ok, err := probe(ctx, svc.service)
			if !ok {
				return
			}

			checked[i] = true
			reports[i] = HealthReport{
				Name:    svc.name,
				Status:  HealthStatusUp,
				Latency: time.Since(start),
			}
			if err != nil {
				reports[i].Status = HealthStatusDown
				reports[i].Error = err
			}
		}()
	}
	wg.Wait()

	out := reports[:0]
	for i, r := range reports {
		if checked[i] {
			out = append(out, r)
		}
	}
	return out
}

func firstDown(reports []HealthReport) error {
	for _, r := range reports {
		if r.Status == HealthStatusDown {
			return errHealthCheckFailed(r.Name, r.Error)
		}
	}
	return nil
}
