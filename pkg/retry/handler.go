package retry

import (
	"context"
	"fmt"

	"github.com/rohmanhakim/url-seeder/pkg/failure"
	"github.com/rohmanhakim/url-seeder/pkg/timeutil"
)

// Retry executes the provided function against a fixed delay schedule.
// The function runs once, and after each failure that is classified as
// retryable it runs again after the next delay in the schedule. Delays are
// served through the injected Sleeper so tests can run without wall-clock
// time. A non-retryable error returns immediately.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](
	ctx context.Context,
	param ScheduleParam,
	sleeper timeutil.Sleeper,
	fn func() (T, failure.ClassifiedError),
) Result[T] {
	var lastErr failure.ClassifiedError
	var zero T

	delays := param.Delays()

	for attempt := 1; attempt <= param.MaxAttempts(); attempt++ {
		result, err := fn()

		if err == nil {
			return NewSuccessResult(result, attempt)
		}

		lastErr = err

		if !isErrorRetryable(err) {
			return Result[T]{
				value:    zero,
				err:      err,
				attempts: attempt,
			}
		}

		// Last attempt exhausted the schedule
		if attempt > len(delays) {
			break
		}

		if sleepErr := sleeper.Sleep(ctx, delays[attempt-1]); sleepErr != nil {
			return Result[T]{
				value: zero,
				err: &RetryError{
					Message:   fmt.Sprintf("cancelled while waiting to retry: %v", sleepErr),
					Cause:     ErrCancelled,
					Retryable: false,
				},
				attempts: attempt,
			}
		}
	}

	return Result[T]{
		value: zero,
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", param.MaxAttempts(), lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: false,
		},
		attempts: param.MaxAttempts(),
	}
}

// isErrorRetryable checks if an error should be retried.
// It uses type assertion to check for the Retryable property.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}

	// Default to not retryable if the error does not classify itself;
	// a fixed schedule must never loop on an unknown failure.
	return false
}
