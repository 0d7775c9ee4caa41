package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Delay: time.Millisecond}
}

func TestRunWithRetry_ExactAttemptBudget(t *testing.T) {
	calls := 0
	outcome, err := runWithRetry(context.Background(), testPolicy(3), func(context.Context) error {
		calls++
		return fmt.Errorf("throttled: %w", ErrTransient)
	})

	// Exactly max attempts, no more, no fewer; exhaustion is recorded as
	// a fatal failure, not swallowed.
	assert.Equal(t, 3, calls)
	assert.Equal(t, OutcomeFatal, outcome)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestRunWithRetry_SuccessIsNotRetried(t *testing.T) {
	calls := 0
	outcome, err := runWithRetry(context.Background(), testPolicy(3), func(context.Context) error {
		calls++
		return nil
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.NoError(t, err)
}

func TestRunWithRetry_NotFoundIsSuccess(t *testing.T) {
	calls := 0
	outcome, err := runWithRetry(context.Background(), testPolicy(3), func(context.Context) error {
		calls++
		return fmt.Errorf("delete endpoint: %w", ErrNotFound)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.NoError(t, err)
}

func TestRunWithRetry_FatalSurfacesImmediately(t *testing.T) {
	calls := 0
	fatal := errors.New("AccessDenied: not authorized")
	outcome, err := runWithRetry(context.Background(), testPolicy(3), func(context.Context) error {
		calls++
		return fatal
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, OutcomeFatal, outcome)
	assert.ErrorIs(t, err, fatal)
}

func TestRunWithRetry_ConflictThenSuccess(t *testing.T) {
	calls := 0
	outcome, err := runWithRetry(context.Background(), testPolicy(3), func(context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("endpoint updating: %w", ErrConflict)
		}
		return nil
	})
	assert.Equal(t, 2, calls)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.NoError(t, err)
}

func TestRunWithRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Hour}
	done := make(chan struct{})

	var outcome Outcome
	var err error
	go func() {
		outcome, err = runWithRetry(ctx, policy, func(context.Context) error {
			calls++
			return fmt.Errorf("busy: %w", ErrConflict)
		})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, OutcomeFatal, outcome)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"not found", fmt.Errorf("x: %w", ErrNotFound), OutcomeSuccess},
		{"conflict", fmt.Errorf("x: %w", ErrConflict), OutcomeRetryable},
		{"transient", fmt.Errorf("x: %w", ErrTransient), OutcomeRetryable},
		{"unknown", errors.New("malformed request"), OutcomeFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}
