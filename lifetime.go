package scopehost

import (
	"log/slog"

	"github.com/danpasecinic/scopehost/internal/signal"
)

// ScopeLifetime carries the Started, Stopping and Stopped events of one
// scope. Observer failures are logged and never reach the Host's caller.
type ScopeLifetime struct {
	logger *slog.Logger

	started  *signal.Broadcast
	stopping *signal.Broadcast
	stopped  *signal.Broadcast
}

func NewScopeLifetime(logger *slog.Logger) *ScopeLifetime {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeLifetime{
		logger:   logger,
		started:  signal.New(),
		stopping: signal.New(),
		stopped:  signal.New(),
	}
}

// Started fires once every hosted service has started successfully.
func (l *ScopeLifetime) Started() Signal {
	return l.started
}

// Stopping fires when the scope is asked to stop.
func (l *ScopeLifetime) Stopping() Signal {
	return l.stopping
}

// Stopped fires after every hosted service was stopped.
func (l *ScopeLifetime) Stopped() Signal {
	return l.stopped
}

// RequestStop asks the scope to stop. Only the first call runs the Stopping
// callbacks. Later calls return immediately, even from inside a callback.
func (l *ScopeLifetime) RequestStop() {
	if err := l.stopping.Trigger(); err != nil {
		l.logger.Error("an error occurred stopping the scope", "error", err)
	}
}

func (l *ScopeLifetime) NotifyStarted() {
	if err := l.started.Trigger(); err != nil {
		l.logger.Error("an error occurred starting the scope", "error", err)
	}
}

// NotifyStopped fires Stopped, firing Stopping first if nobody has.
func (l *ScopeLifetime) NotifyStopped() {
	l.RequestStop()
	if err := l.stopped.Trigger(); err != nil {
		l.logger.Error("an error occurred stopping the scope", "error", err)
	}
}
