package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressbot/pressbot/pkg/errors"
)

// instantSleep records requested delays instead of waiting for them.
func instantSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func newTestRetrier(opts Options, delays *[]time.Duration) *Retrier {
	r := NewRetrier(opts)
	r.sleep = instantSleep(delays)
	return r
}

func TestRetrier_SuccessOnFirstAttempt(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(DefaultOptions(), &delays)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays, "success must not incur a delay")
}

func TestRetrier_SuccessAfterRetries(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(Options{MaxAttempts: 3}, &delays)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.NewTimeoutError("fetch")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, delays, 2)
}

func TestRetrier_ExhaustsAttemptBudget(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(Options{MaxAttempts: 5}, &delays)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.NewNetworkError("connection dropped")
	})

	require.Error(t, err)
	assert.Equal(t, 5, attempts)
	assert.Len(t, delays, 4)

	var pipeErr *errors.PipelineError
	require.True(t, stderrors.As(err, &pipeErr))
	assert.Equal(t, errors.CategoryNetwork, pipeErr.Category)
}

func TestRetrier_NonRetryableShortCircuits(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(Options{MaxAttempts: 10}, &delays)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.NewValidationError("bad payload")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays)
}

func TestRetrier_SingleAttemptBudget(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(Options{MaxAttempts: 1}, &delays)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.NewTimeoutError("fetch")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays)
}

func TestRetrier_ClassifiesRawErrors(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(Options{MaxAttempts: 2}, &delays)

	err := r.Do(context.Background(), func(ctx context.Context) error {
		return stderrors.New("dial tcp: connection refused")
	})

	var pipeErr *errors.PipelineError
	require.True(t, stderrors.As(err, &pipeErr))
	assert.Equal(t, errors.CategoryNetwork, pipeErr.Category)
	assert.Len(t, delays, 1, "a classified network error is retryable")
}

func TestRetrier_CategoryAllowList(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(Options{
		MaxAttempts:         4,
		RetryableCategories: []errors.ErrorCategory{errors.CategoryRateLimit},
	}, &delays)

	// Retryable by default, but not in the allow-list.
	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.NewNetworkError("connection dropped")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	// In the allow-list.
	attempts = 0
	err = r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.NewRateLimitError("throttled")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetrier_DeterministicBackoffSequence(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(Options{
		MaxAttempts:   6,
		InitialDelay:  1000 * time.Millisecond,
		MaxDelay:      5000 * time.Millisecond,
		BackoffFactor: 2.0,
	}, &delays)

	r.Do(context.Background(), func(ctx context.Context) error {
		return errors.NewTimeoutError("fetch")
	})

	expected := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		5000 * time.Millisecond,
		5000 * time.Millisecond,
	}
	assert.Equal(t, expected, delays)
}

func TestRetrier_OnRetryObserver(t *testing.T) {
	var delays []time.Duration
	var observedAttempts []int
	var observedCategories []errors.ErrorCategory

	opts := Options{
		MaxAttempts: 3,
		OnRetry: func(attempt int, err *errors.PipelineError) {
			observedAttempts = append(observedAttempts, attempt)
			observedCategories = append(observedCategories, err.Category)
		},
	}
	r := newTestRetrier(opts, &delays)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.NewTimeoutError("fetch")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, observedAttempts)
	assert.Equal(t, []errors.ErrorCategory{errors.CategoryTimeout, errors.CategoryTimeout}, observedCategories)
}

func TestRetrier_ContextCancellation(t *testing.T) {
	r := NewRetrier(Options{MaxAttempts: 5, InitialDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	attempted := make(chan struct{}, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Do(ctx, func(ctx context.Context) error {
			attempts++
			attempted <- struct{}{}
			return errors.NewTimeoutError("fetch")
		})
	}()

	<-attempted
	cancel()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	case <-time.After(5 * time.Second):
		t.Fatal("retrier did not observe cancellation")
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), Options{MaxAttempts: 3, InitialDelay: time.Millisecond}, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.NewTimeoutError("fetch")
		}
		return "article-42", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "article-42", result)
	assert.Equal(t, 2, attempts)
}
