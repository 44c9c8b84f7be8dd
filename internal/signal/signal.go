package signal

import (
	"sync"

	"github.com/danpasecinic/scopehost/internal/lifecycle"
)

// Broadcast is a one-shot signal. It moves from untriggered to triggered
// exactly once and runs its callbacks on the goroutine that triggers it.
type Broadcast struct {
	mu        sync.Mutex
	triggered bool
	done      chan struct{}
	finished  chan struct{}
	callbacks []*entry
	nextID    uint64
}

type entry struct {
	id uint64
	fn func()
}

type Registration struct {
	b  *Broadcast
	id uint64
}

func New() *Broadcast {
	return &Broadcast{
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (b *Broadcast) Done() <-chan struct{} {
	return b.done
}

// Finished is closed once the triggering call has run every callback.
func (b *Broadcast) Finished() <-chan struct{} {
	return b.finished
}

func (b *Broadcast) Triggered() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.triggered
}

// Register queues fn until the signal triggers. If the signal has already
// triggered, fn runs immediately on the caller's goroutine and the returned
// Registration is inert.
func (b *Broadcast) Register(fn func()) Registration {
	b.mu.Lock()
	if b.triggered {
		b.mu.Unlock()
		fn()
		return Registration{}
	}
	b.nextID++
	id := b.nextID
	b.callbacks = append(b.callbacks, &entry{id: id, fn: fn})
	b.mu.Unlock()
	return Registration{b: b, id: id}
}

// Unregister removes a callback that has not run yet.
func (r Registration) Unregister() bool {
	if r.b == nil {
		return false
	}
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if r.b.triggered {
		return false
	}
	for i, e := range r.b.callbacks {
		if e.id == r.id {
			r.b.callbacks = append(r.b.callbacks[:i], r.b.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

// Trigger fires the signal. Only the first call runs callbacks. Later calls
// return nil at once, including calls made from a callback; wait on Finished
// to observe the callbacks completing.
// A panicking callback does not stop the ones after it; recovered panics are
// returned once every callback has run.
func (b *Broadcast) Trigger() error {
	b.mu.Lock()
	if b.triggered {
		b.mu.Unlock()
		return nil
	}
	b.triggered = true
	close(b.done)
	callbacks := b.callbacks
	b.callbacks = nil
	b.mu.Unlock()
	defer close(b.finished)

	var acc lifecycle.Accumulator
	for _, e := range callbacks {
		acc.Add(lifecycle.Protect(func() error {
			e.fn()
			return nil
		}))
	}
	return acc.Err("one or more signal callbacks failed")
}
