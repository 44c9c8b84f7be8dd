package scopehost

import (
	"context"
	"os"
	ossignal "os/signal"
	"sync"
	"syscall"
)

// HostLifetime lets something outside the scope gate startup and learn about
// shutdown. An error from WaitForStart aborts Host.Start; an error from
// NotifyStopping is reported by Host.Stop like a service failure.
type HostLifetime interface {
	WaitForStart(ctx context.Context) error
	NotifyStopping(ctx context.Context) error
}

type NopHostLifetime struct{}

func (NopHostLifetime) WaitForStart(context.Context) error   { return nil }
func (NopHostLifetime) NotifyStopping(context.Context) error { return nil }

// SignalHostLifetime stops its scope when the process receives one of the
// configured OS signals.
type SignalHostLifetime struct {
	lifetime *ScopeLifetime
	signals  []os.Signal

	mu   sync.Mutex
	ch   chan os.Signal
	done chan struct{}
}

// NewSignalHostLifetime watches sigs, or SIGINT and SIGTERM when none are
// given, and requests a stop of lt when one arrives.
func NewSignalHostLifetime(lt *ScopeLifetime, sigs ...os.Signal) *SignalHostLifetime {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return &SignalHostLifetime{lifetime: lt, signals: sigs}
}

func (l *SignalHostLifetime) WaitForStart(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ch != nil {
		return nil
	}

	l.ch = make(chan os.Signal, 1)
	l.done = make(chan struct{})
	ossignal.Notify(l.ch, l.signals...)

	ch, done := l.ch, l.done
	go func() {
		select {
		case <-ch:
			l.lifetime.RequestStop()
		case <-done:
		}
	}()
	return nil
}

func (l *SignalHostLifetime) NotifyStopping(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ch == nil {
		return nil
	}

	ossignal.Stop(l.ch)
	close(l.done)
	l.ch = nil
	return nil
}
