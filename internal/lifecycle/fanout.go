package lifecycle

import (
	"context"
	"runtime/debug"
)

type Policy struct {
	Concurrent        bool
	AbortOnFirstError bool
}

type Operation[T any] func(ctx context.Context, target T) error

type call struct {
	done chan struct{}
	err  error
}

// ForEach applies op to every target and records failures in acc.
//
// Sequentially, targets run one after another in order and the first failure
// ends the pass when p.AbortOnFirstError is set. Concurrently, every target is
// launched on its own goroutine in order, then all are awaited and recorded in
// launch order. AbortOnFirstError has no effect in concurrent mode.
func ForEach[T any](ctx context.Context, targets []T, p Policy, acc *Accumulator, op Operation[T]) {
	if !p.Concurrent {
		for _, target := range targets {
			if err := invoke(ctx, target, op); err != nil {
				acc.Add(err)
				if p.AbortOnFirstError {
					return
				}
			}
		}
		return
	}

	pending := make([]*call, 0, len(targets))
	for _, target := range targets {
		pending = append(pending, launch(ctx, target, op))
	}

	for _, c := range pending {
		<-c.done
		acc.Add(c.err)
	}
}

func launch[T any](ctx context.Context, target T, op Operation[T]) *call {
	c := &call{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		c.err = invoke(ctx, target, op)
	}()
	return c
}

func invoke[T any](ctx context.Context, target T, op Operation[T]) error {
	return Protect(func() error { return op(ctx, target) })
}

// Protect runs fn and converts a panic into a *PanicError.
func Protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Reversed returns a copy of s in reverse order.
func Reversed[T any](s []T) []T {
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
