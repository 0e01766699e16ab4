package errors

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierIsTransient(t *testing.T) {
	c := NewClassifier()

	assert.True(t, c.IsTransient(NewNetworkError("dial failed", nil)))
	assert.True(t, c.IsTransient(NewRateLimitError("slow down", 0)))
	assert.True(t, c.IsTransient(NewError(KindAPI, "X", "service unavailable").WithStatusCode(503).Build()))
	assert.False(t, c.IsTransient(NewNotFoundError("paper", "1")))
	assert.False(t, c.IsTransient(NewParseError("arxiv", "bad xml", nil)))
	assert.False(t, c.IsTransient(NewInvalidRequestError("bad id", "paper_id", "x")))
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := CircuitBreakerConfig{FailureThreshold: 5, SuccessThreshold: 3, OpenDuration: 20 * time.Millisecond}
	cb := NewCircuitBreaker(cfg, slog.Default())

	for i := 0; i < 4; i++ {
		cb.Record(false)
		assert.Equal(t, StateClosed, cb.State())
	}
	cb.Record(false)
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.CanRequest())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.CanRequest())

	cb.Record(true)
	cb.Record(true)
	assert.Equal(t, StateHalfOpen, cb.State())
	cb.Record(true)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cfg := CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 2, OpenDuration: 10 * time.Millisecond}
	cb := NewCircuitBreaker(cfg, slog.Default())

	cb.Record(false)
	cb.Record(false)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.Record(false)
	assert.Equal(t, StateOpen, cb.State())
}

func TestRetryExecutorSucceedsOnThirdAttempt(t *testing.T) {
	attempts := 0
	re := NewRetryExecutor(RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
		MaxTotalTime: 10 * time.Second, // network errors wait at least 2s between attempts
	}, NewClassifier(), slog.Default())

	err := re.Execute(context.Background(), "fetch", func() error {
		attempts++
		if attempts < 3 {
			return NewNetworkError("connection reset", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryExecutorDoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	re := NewRetryExecutor(DefaultRetryConfig(), NewClassifier(), slog.Default())

	err := re.Execute(context.Background(), "lookup", func() error {
		attempts++
		return NewNotFoundError("paper", "abc")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	var fe *FedError
	require.True(t, As(err, &fe))
	assert.Equal(t, KindNotFound, fe.Kind)
}

func TestCircuitBreakerManagerGetOrCreate(t *testing.T) {
	m := NewCircuitBreakerManager(slog.Default())
	a := m.GetOrCreate("arxiv", DefaultCircuitBreakerConfig())
	b := m.GetOrCreate("arxiv", DefaultCircuitBreakerConfig())
	assert.Same(t, a, b)

	_, ok := m.Get("unknown")
	assert.False(t, ok)
}
