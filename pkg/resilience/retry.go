// Package resilience provides the retry engine used by every integration
// client: each failure is classified, retried with exponential backoff while
// it stays retryable, and surfaced as a structured error once the attempt
// budget runs out.
package resilience

import (
	"context"
	"math"
	"time"

	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/logging"
)

// Options holds configuration for retry logic
type Options struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration
	// MaxDelay caps the delay between retries
	MaxDelay time.Duration
	// BackoffFactor is the multiplier for exponential backoff
	BackoffFactor float64
	// RetryableCategories, when set, restricts retries to these categories
	// on top of the error's own retryability
	RetryableCategories []errors.ErrorCategory
	// OnRetry is called before each backoff sleep with the attempt number
	// that just failed and its error
	OnRetry func(attempt int, err *errors.PipelineError)
}

// DefaultOptions returns the default retry configuration
func DefaultOptions() Options {
	return Options{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retrier executes operations with retry and exponential backoff
type Retrier struct {
	opts   Options
	logger *logging.Logger

	// sleep is swapped out in tests to keep delay sequences observable
	// without waiting for them
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a new retrier, normalizing zero-value options
func NewRetrier(opts Options) *Retrier {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 1 * time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.BackoffFactor <= 0 {
		opts.BackoffFactor = 2.0
	}

	return &Retrier{
		opts:   opts,
		logger: logging.GetLogger(),
		sleep:  sleepContext,
	}
}

// Do executes the operation, retrying on retryable failures. The returned
// error is always a *errors.PipelineError.
func (r *Retrier) Do(ctx context.Context, operation func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.NewTimeoutError("retry").WithCause(err)
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("Operation succeeded after retry",
					"attempt", attempt,
					"max_attempts", r.opts.MaxAttempts,
				)
			}
			return nil
		}

		pipeErr := errors.FromError(err)

		if !r.retryable(pipeErr) {
			r.logger.Debug("Error is not retryable, stopping",
				"error", pipeErr.Error(),
				"category", pipeErr.Category,
				"attempt", attempt,
			)
			return pipeErr
		}

		if attempt >= r.opts.MaxAttempts {
			r.logger.Error("Operation failed after all retry attempts",
				"error", pipeErr.Error(),
				"category", pipeErr.Category,
				"attempts", attempt,
			)
			return pipeErr
		}

		delay := r.delayFor(attempt)

		r.logger.Debug("Operation failed, retrying",
			"error", pipeErr.Error(),
			"category", pipeErr.Category,
			"attempt", attempt,
			"max_attempts", r.opts.MaxAttempts,
			"delay", delay,
		)

		if r.opts.OnRetry != nil {
			r.opts.OnRetry(attempt, pipeErr)
		}

		if err := r.sleep(ctx, delay); err != nil {
			return errors.NewTimeoutError("retry backoff").WithCause(err)
		}
	}
}

// retryable combines the error's own retryability with the optional
// category allow-list.
func (r *Retrier) retryable(err *errors.PipelineError) bool {
	if !err.Retryable {
		return false
	}
	if len(r.opts.RetryableCategories) == 0 {
		return true
	}
	for _, category := range r.opts.RetryableCategories {
		if err.Category == category {
			return true
		}
	}
	return false
}

// delayFor computes the backoff delay after the given attempt. The sequence
// is deterministic: InitialDelay * BackoffFactor^(attempt-1), capped at
// MaxDelay.
func (r *Retrier) delayFor(attempt int) time.Duration {
	delay := float64(r.opts.InitialDelay) * math.Pow(r.opts.BackoffFactor, float64(attempt-1))
	if delay > float64(r.opts.MaxDelay) {
		delay = float64(r.opts.MaxDelay)
	}
	return time.Duration(delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do is a convenience wrapper to execute an operation with the given options
func Do(ctx context.Context, opts Options, operation func(context.Context) error) error {
	return NewRetrier(opts).Do(ctx, operation)
}

// DoWithResult executes an operation that returns a value, retrying per the
// given options
func DoWithResult[T any](ctx context.Context, opts Options, operation func(context.Context) (T, error)) (T, error) {
	var result T
	err := NewRetrier(opts).Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = operation(ctx)
		return opErr
	})
	return result, err
}
