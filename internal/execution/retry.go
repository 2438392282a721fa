package execution

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Outcome classifies a single attempt.
type Outcome int

const (
	// Retry means the attempt was inconclusive; try again after the interval.
	Retry Outcome = iota
	// Done means the attempt produced the final value.
	Done
	// Fatal means the attempt failed in a way retrying cannot fix.
	Fatal
)

var ErrRetryExhausted = errors.New("retry budget exhausted")

type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// RetryUntil runs attempt until it reports Done or Fatal, or until
// MaxAttempts attempts have run. It sleeps only between attempts, so a budget
// of n means exactly n calls. The returned int is the number of attempts made.
func RetryUntil[T any](ctx context.Context, policy RetryPolicy, attempt func(ctx context.Context, n int) (T, Outcome, error)) (T, int, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var (
		last    T
		lastErr error
	)
	for n := 1; n <= policy.MaxAttempts; n++ {
		value, outcome, err := attempt(ctx, n)
		switch outcome {
		case Done:
			return value, n, nil
		case Fatal:
			return value, n, err
		}
		last, lastErr = value, err
		if n == policy.MaxAttempts {
			break
		}
		if err := sleep(ctx, policy.Interval); err != nil {
			return last, n, err
		}
	}
	if lastErr != nil {
		return last, policy.MaxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, policy.MaxAttempts, lastErr)
	}
	return last, policy.MaxAttempts, fmt.Errorf("%w after %d attempts", ErrRetryExhausted, policy.MaxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
