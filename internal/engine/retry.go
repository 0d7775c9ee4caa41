package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxAttempts is the per-operation attempt budget.
const DefaultMaxAttempts = 3

// DefaultRetryDelay is the pause between attempts. It is deliberately on
// the order of tens of seconds so a retry lands past the provider's usual
// eventual-consistency window.
const DefaultRetryDelay = 20 * time.Second

// RetryPolicy bounds how an operation is retried.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// Linear scales the delay by the attempt number instead of keeping
	// it fixed.
	Linear bool
}

// DefaultRetryPolicy returns the policy used for every provider operation
// unless overridden in Config.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultRetryDelay,
	}
}

// classify maps an adapter error onto an attempt outcome. NotFound is the
// idempotent-delete case and counts as success. Anything the adapter did
// not mark conflict or transient is fatal and never retried.
func classify(err error) Outcome {
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
		return OutcomeSuccess
	case errors.Is(err, ErrConflict), errors.Is(err, ErrTransient):
		return OutcomeRetryable
	default:
		return OutcomeFatal
	}
}

// runWithRetry executes fn under the policy. It never re-runs an
// operation that already succeeded, surfaces fatal failures immediately,
// and records an exhausted retryable budget as a fatal failure rather
// than swallowing it.
func runWithRetry(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) (Outcome, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		switch classify(lastErr) {
		case OutcomeSuccess:
			return OutcomeSuccess, nil
		case OutcomeFatal:
			return OutcomeFatal, lastErr
		}

		if attempt == policy.MaxAttempts {
			break
		}
		delay := policy.Delay
		if policy.Linear {
			delay = time.Duration(attempt) * policy.Delay
		}
		select {
		case <-ctx.Done():
			return OutcomeFatal, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return OutcomeFatal, fmt.Errorf("retry budget (%d attempts) exhausted: %w", policy.MaxAttempts, lastErr)
}
