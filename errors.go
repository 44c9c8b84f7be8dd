package scopehost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danpasecinic/scopehost/internal/container"
	"github.com/danpasecinic/scopehost/internal/lifecycle"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeServiceNotFound
	ErrCodeCircularDependency
	ErrCodeDuplicateService
	ErrCodeResolutionFailed
	ErrCodeProviderFailed
	ErrCodeStartupFailed
	ErrCodeShutdownFailed
	ErrCodeScopeClosed
	ErrCodeHealthCheckFailed
	ErrCodeInvalidConfig
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "UNKNOWN",
	ErrCodeServiceNotFound:    "SERVICE_NOT_FOUND",
	ErrCodeCircularDependency: "CIRCULAR_DEPENDENCY",
	ErrCodeDuplicateService:   "DUPLICATE_SERVICE",
	ErrCodeResolutionFailed:   "RESOLUTION_FAILED",
	ErrCodeProviderFailed:     "PROVIDER_FAILED",
	ErrCodeStartupFailed:      "STARTUP_FAILED",
	ErrCodeShutdownFailed:     "SHUTDOWN_FAILED",
	ErrCodeScopeClosed:        "SCOPE_CLOSED",
	ErrCodeHealthCheckFailed:  "HEALTH_CHECK_FAILED",
	ErrCodeInvalidConfig:      "INVALID_CONFIG",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

type Error struct {
	Code    ErrorCode
	Message string
	Service string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Service != "" {
		b.WriteString(fmt.Sprintf(" service=%q:", e.Service))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: c})
// finds a coded error anywhere in the chain.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithService(service string) *Error {
	e.Service = service
	return e
}

// AggregateError is returned by Host.Start and Host.Stop when more than one
// phase call failed. Errors keeps the failures in the order they were recorded.
type AggregateError = lifecycle.AggregateError

// PanicError is recorded when a hosted service phase panics.
type PanicError = lifecycle.PanicError

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// resolutionError translates a failure from the internal container into a
// coded error for service.
func resolutionError(service string, err error) *Error {
	switch {
	case errors.Is(err, container.ErrClosed):
		return newError(ErrCodeScopeClosed, "scope is closed", err).WithService(service)
	case errors.Is(err, container.ErrCircular):
		return newError(ErrCodeCircularDependency, "circular dependency detected", err).WithService(service)
	case errors.Is(err, container.ErrProvider):
		return newError(ErrCodeProviderFailed, fmt.Sprintf("provider for %s returned error", service), err).
			WithService(service)
	case errors.Is(err, container.ErrNotFound):
		return newError(ErrCodeServiceNotFound, fmt.Sprintf("no provider registered for %s", service), err).
			WithService(service)
	default:
		return newError(ErrCodeResolutionFailed, fmt.Sprintf("failed to resolve %s", service), err).
			WithService(service)
	}
}

func errDuplicateService(service string) *Error {
	return newError(
		ErrCodeDuplicateService,
		fmt.Sprintf("provider already registered for %s", service),
		nil,
	).WithService(service)
}

func errTypeMismatch(service string, instance any) *Error {
	return newError(
		ErrCodeResolutionFailed,
		fmt.Sprintf("resolved %T is not assignable to %s", instance, service),
		nil,
	).WithService(service)
}

func errHealthCheckFailed(service string, cause error) *Error {
	return newError(ErrCodeHealthCheckFailed, "health check failed", cause).WithService(service)
}

func hasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeServiceNotFound)
}

func IsCircularDependency(err error) bool {
	return hasCode(err, ErrCodeCircularDependency)
}

func IsDuplicateService(err error) bool {
	return hasCode(err, ErrCodeDuplicateService)
}

func IsResolutionFailed(err error) bool {
	return hasCode(err, ErrCodeResolutionFailed)
}

func IsProviderFailed(err error) bool {
	return hasCode(err, ErrCodeProviderFailed)
}

func IsScopeClosed(err error) bool {
	return hasCode(err, ErrCodeScopeClosed)
}

func IsHealthCheckFailed(err error) bool {
	return hasCode(err, ErrCodeHealthCheckFailed)
}

func IsInvalidConfig(err error) bool {
	return hasCode(err, ErrCodeInvalidConfig)
}

// IsAggregate reports whether err carries more than one phase failure.
func IsAggregate(err error) bool {
	var agg *AggregateError
	return errors.As(err, &agg)
}

func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}

func errStartupFailed(scope string, cause error) *Error {
	return newError(ErrCodeStartupFailed, fmt.Sprintf("scope %s failed before its host started", scope), cause)
}

func errShutdownFailed(cause error) *Error {
	return newError(ErrCodeShutdownFailed, "one or more scopes failed", cause)
}

func IsStartupFailed(err error) bool {
	return hasCode(err, ErrCodeStartupFailed)
}

func IsShutdownFailed(err error) bool {
	return hasCode(err, ErrCodeShutdownFailed)
}
