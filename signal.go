package scopehost

import (
	"github.com/danpasecinic/scopehost/internal/signal"
)

// Signal is the observer side of a one-shot lifecycle event. Done is closed
// once the event fires; callbacks registered afterwards run immediately.
type Signal interface {
	Done() <-chan struct{}
	Triggered() bool
	Register(fn func()) Registration
}

type Registration = signal.Registration

var _ Signal = (*signal.Broadcast)(nil)
