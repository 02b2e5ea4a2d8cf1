// Package context holds context helpers shared by tickflow components.
package context

import (
	"context"
	"errors"
	"time"
)

// Operation outcomes, used as metric label values.
const (
	OutcomeOK       = "ok"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// WithOptionalTimeout bounds parent by timeout. A non-positive timeout
// leaves the deadline of parent unchanged.
func WithOptionalTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// IsDone returns true if ctx has been canceled or its deadline has passed
func IsDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Outcome classifies err, returned by an operation run under ctx.
func Outcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
