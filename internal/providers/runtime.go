package providers

import (
	"context"
	"log/slog"

	fedErrors "research-master/internal/errors"
	"research-master/internal/httpclient"
)

// Runtime bundles the shared substrate every adapter's outbound call goes
// through: breaker ∘ retry ∘ rate-limited HTTP, per spec.md §4.4.
type Runtime struct {
	HTTP    *httpclient.Client
	Breaker *fedErrors.CircuitBreaker
	Retry   *fedErrors.RetryExecutor
	Logger  *slog.Logger
}

// NewRuntime wires a breaker and retry executor for one provider id around
// the shared HTTP client. breakerConfig is applied only the first time id is
// seen by breakers (CircuitBreakerManager.GetOrCreate reuses the existing
// breaker, and its thresholds, on every later call).
func NewRuntime(id string, httpClient *httpclient.Client, breakers *fedErrors.CircuitBreakerManager, breakerConfig fedErrors.CircuitBreakerConfig, retryConfig fedErrors.RetryConfig, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	classifier := fedErrors.NewClassifier()
	return &Runtime{
		HTTP:    httpClient,
		Breaker: breakers.GetOrCreate(id, breakerConfig),
		Retry:   fedErrors.NewRetryExecutor(retryConfig, classifier, logger),
		Logger:  logger,
	}
}

// Call runs fn as breaker(retry(fn)): the breaker short-circuits the whole
// retry sequence while open, otherwise retry classifies and re-attempts fn
// (which itself performs the rate-limited HTTP call).
func (r *Runtime) Call(ctx context.Context, operation string, fn func() error) error {
	return r.Breaker.Execute(func() error {
		return r.Retry.Execute(ctx, operation, fn)
	})
}
