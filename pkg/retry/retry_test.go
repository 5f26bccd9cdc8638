package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastOpts() []Option {
	return []Option{
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
		WithJitter(0),
	}
}

func TestRetriesRetryableUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	}, fastOpts()...)

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestPermanentStopsImmediately(t *testing.T) {
	cause := errors.New("bad request")
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(cause)
	}, fastOpts()...)

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestUnmarkedErrorIsNotRetried(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("plain")
	}, fastOpts()...)

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestExhaustedBudgetReturnsCause(t *testing.T) {
	cause := errors.New("still down")
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(cause)
	}, fastOpts()...)

	assert.Equal(t, cause, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryIfOverridesMarkers(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("unmarked but transient")
	}, append(fastOpts(), WithRetryIf(func(error) bool { return true }))...)

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestContextCancellationWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		return Retryable(errors.New("never"))
	}, fastOpts()...)

	assert.Error(t, err)
	assert.Equal(t, 0, attempts)
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	got, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, Retryable(errors.New("warming up"))
		}
		return 42, nil
	}, fastOpts()...)

	assert.NoError(t, err)
	assert.Equal(t, 42, got)
}
