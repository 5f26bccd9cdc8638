package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func failing(ctx context.Context) error { return errBoom }
func ok(ctx context.Context) error      { return nil }

func TestOpensAfterThresholdFailures(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(context.Background(), failing), errBoom)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), ok)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(time.Millisecond),
		WithMaxHalfOpenRequests(2),
	)

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	assert.NoError(t, cb.Execute(context.Background(), ok))
	assert.NoError(t, cb.Execute(context.Background(), ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New("test", WithFailureThreshold(1), WithTimeout(time.Millisecond))

	_ = cb.Execute(context.Background(), failing)
	time.Sleep(5 * time.Millisecond)

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())
}

func TestIsFailureClassifier(t *testing.T) {
	benign := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, benign) }),
	)

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return benign })
	assert.Equal(t, StateClosed, cb.State(), "classified-benign errors do not trip the breaker")
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New("gradebook",
		WithFailureThreshold(1),
		WithOnStateChange(func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	_ = cb.Execute(context.Background(), failing)
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(context.Background(), ok))
}
