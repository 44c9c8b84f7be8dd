package lifecycle

import (
	"fmt"
	"strings"
)

// AggregateError carries every failure collected during one Start or Stop
// call, in the order they were recorded.
type AggregateError struct {
	Message string
	Errors  []error
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	b.WriteString(fmt.Sprintf(" (%d errors)", len(e.Errors)))
	for i, err := range e.Errors {
		b.WriteString(fmt.Sprintf("\n  %d: %v", i+1, err))
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// PanicError is recorded in place of an error when a phase call or a signal
// callback panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type Accumulator struct {
	errs []error
}

func (a *Accumulator) Add(err error) {
	if err != nil {
		a.errs = append(a.errs, err)
	}
}

func (a *Accumulator) Len() int {
	return len(a.errs)
}

func (a *Accumulator) Errors() []error {
	out := make([]error, len(a.errs))
	copy(out, a.errs)
	return out
}

// Err returns nil when nothing was recorded, the failure itself when exactly
// one was recorded, and an *AggregateError otherwise.
func (a *Accumulator) Err(message string) error {
	switch len(a.errs) {
	case 0:
		return nil
	case 1:
		return a.errs[0]
	default:
		return &AggregateError{Message: message, Errors: a.Errors()}
	}
}
