package services

import (
	"context"
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
)

// Clock is the time source of the accrual scheduler and account creation.
type Clock interface {
	Now() time.Time
	// Until fires once the clock reaches t, at once if t has passed.
	Until(t time.Time) <-chan time.Time
}

type systemClock struct{}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time                      { return time.Now() }
func (systemClock) Until(t time.Time) <-chan time.Time { return time.After(time.Until(t)) }

type traceKey struct{}

// ContextWithTraceID carries the request trace id into the engine, where gin's context is not available.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func traceIDFrom(ctx context.Context) string {
	traceID, _ := ctx.Value(traceKey{}).(string)
	return traceID
}

func invalidRequest(msg string, cause error) error {
	return pkg.NewAppError(pkg.ErrInvalidRequestCode, msg, cause)
}

func unauthorized(msg string, cause error) error {
	return pkg.NewAppError(pkg.ErrUnauthorizedCode, msg, cause)
}

func executionFailed(msg string, cause error) error {
	return pkg.NewAppError(pkg.ErrExecutionFailedCode, msg, cause)
}
