package scopehost

import (
	"context"
)

// HostedService is a unit the Host starts and stops with its scope.
type HostedService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// HostedLifecycleService is a HostedService that also wants to be called
// around Start and Stop. A service is classified once, the first time its
// host starts.
type HostedLifecycleService interface {
	HostedService
	Starting(ctx context.Context) error
	Started(ctx context.Context) error
	Stopping(ctx context.Context) error
	Stopped(ctx context.Context) error
}

// HostedServiceFunc adapts a pair of functions to HostedService. Nil
// functions are no-ops.
type HostedServiceFunc struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (f *HostedServiceFunc) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

func (f *HostedServiceFunc) Stop(ctx context.Context) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(ctx)
}

type hostedService struct {
	name      string
	service   HostedService
	lifecycle HostedLifecycleService
}

func classify(name string, service HostedService) *hostedService {
	hs := &hostedService{name: name, service: service}
	if lc, ok := service.(HostedLifecycleService); ok {
		hs.lifecycle = lc
	}
	return hs
}

func (hs *hostedService) call(ctx context.Context, phase Phase) error {
	switch phase {
	case PhaseStarting:
		return hs.lifecycle.Starting(ctx)
	case PhaseStart:
		return hs.service.Start(ctx)
	case PhaseStarted:
		return hs.lifecycle.Started(ctx)
	case PhaseStopping:
		return hs.lifecycle.Stopping(ctx)
	case PhaseStop:
		return hs.service.Stop(ctx)
	case PhaseStopped:
		return hs.lifecycle.Stopped(ctx)
	}
	return nil
}
