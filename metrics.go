package scopehost

import (
	"time"
)

type Phase uint8

const (
	PhaseStarting Phase = iota
	PhaseStart
	PhaseStarted
	PhaseStopping
	PhaseStop
	PhaseStopped
)

var phaseNames = [...]string{
	PhaseStarting: "starting",
	PhaseStart:    "start",
	PhaseStarted:  "started",
	PhaseStopping: "stopping",
	PhaseStop:     "stop",
	PhaseStopped:  "stopped",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Startup reports whether p belongs to Host.Start.
func (p Phase) Startup() bool {
	return p <= PhaseStarted
}

type ResolveHook func(key string, duration time.Duration, err error)

// PhaseHook observes one phase call on one hosted service.
type PhaseHook func(service string, phase Phase, duration time.Duration, err error)

type ScopeEvent uint8

const (
	ScopeCreated ScopeEvent = iota
	ScopeDestroying
	// ScopeClosed follows every ScopeCreated, including when the host
	// failed and ScopeDestroying never fired. Only ScopeHooks receive it.
	ScopeClosed
)

func (e ScopeEvent) String() string {
	switch e {
	case ScopeCreated:
		return "created"
	case ScopeDestroying:
		return "destroying"
	case ScopeClosed:
		return "closed"
	}
	return "unknown"
}

// ScopeHook observes scopes run by a ScopeFactory.
type ScopeHook func(scopeID string, event ScopeEvent)
