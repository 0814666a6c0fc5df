// Package retry provides the single retry policy used by every network
// operation against the spreadsheet backend.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes a bounded sequential retry loop. Attempts run one at
// a time, each under its own timeout, with a fixed delay in between; the
// backend tolerates no concurrent hammering, so there is no parallelism
// and no exponential growth.
type Policy struct {
	Attempts          int
	Delay             time.Duration
	PerAttemptTimeout time.Duration
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as not worth retrying. Do stops immediately
// when fn returns one.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, or the
// attempt budget is spent. The last error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.PerAttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.PerAttemptTimeout)
		}
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		if p.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}
	return lastErr
}
