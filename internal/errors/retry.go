package errors

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// RetryConfig configures the classified-retry executor of spec.md §4.2.
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
	MaxTotalTime time.Duration `json:"max_total_time"`
	Jitter       bool          `json:"jitter"`
}

// DefaultRetryConfig is the spec.md §4.2 default for most providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 2 * time.Second,
		MaxDelay:     120 * time.Second,
		Multiplier:   2,
		MaxTotalTime: 300 * time.Second,
		Jitter:       true,
	}
}

// StrictRetryConfig is used by providers with stricter upstream limits.
func StrictRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     120 * time.Second,
		Multiplier:   2,
		MaxTotalTime: 180 * time.Second,
		Jitter:       true,
	}
}

// RetryStats tracks aggregate retry outcomes for observability.
type RetryStats struct {
	TotalAttempts     int64   `json:"total_attempts"`
	SuccessfulRetries int64   `json:"successful_retries"`
	FailedRetries     int64   `json:"failed_retries"`
	AverageAttempts   float64 `json:"average_attempts"`
}

// RetryExecutor wraps a callable producing a future (in Go: a closure run
// synchronously per attempt) with classified exponential backoff.
type RetryExecutor struct {
	config     RetryConfig
	classifier *Classifier
	logger     *slog.Logger
	mu         sync.Mutex
	stats      RetryStats
}

func NewRetryExecutor(config RetryConfig, classifier *Classifier, logger *slog.Logger) *RetryExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryExecutor{config: config, classifier: classifier, logger: logger}
}

// Execute runs fn, retrying transient failures per spec.md §4.2 until the
// attempt count or the total wall-clock budget is exhausted.
func (re *RetryExecutor) Execute(ctx context.Context, operation string, fn func() error) error {
	deadline := time.Now().Add(re.config.MaxTotalTime)
	var lastErr error

	re.mu.Lock()
	re.stats.TotalAttempts++
	re.mu.Unlock()

	attempt := 0
	for attempt < re.config.MaxAttempts {
		attempt++

		err := fn()
		if err == nil {
			if attempt > 1 {
				re.recordOutcome(true, attempt)
				re.logger.Info("operation succeeded after retry",
					slog.String("operation", operation), slog.Int("attempts", attempt))
			}
			return nil
		}
		lastErr = err

		fe := re.classifier.Classify(err)
		if !re.classifier.IsTransient(fe) {
			re.recordOutcome(false, attempt)
			return err
		}
		if attempt >= re.config.MaxAttempts || time.Now().After(deadline) {
			break
		}

		delay := re.calculateDelay(attempt, fe)
		if time.Now().Add(delay).After(deadline) {
			delay = time.Until(deadline)
			if delay < 0 {
				break
			}
		}

		re.logger.Warn("operation failed, retrying",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	re.recordOutcome(false, attempt)
	re.logger.Error("operation failed after all retries",
		slog.String("operation", operation),
		slog.Int("attempts", attempt),
		slog.String("final_error", lastErr.Error()))

	return NewError(KindOther, "RETRY_EXHAUSTED", fmt.Sprintf("operation failed after %d attempts", attempt)).
		WithCause(lastErr).
		WithComponent("retry_executor").
		WithOperation(operation).
		WithDetail("attempts", attempt).
		Retryable(false).
		Build()
}

// calculateDelay implements spec.md §4.2 step 5: the maximum of exponential
// backoff and an error-specific minimum recommended delay.
func (re *RetryExecutor) calculateDelay(attempt int, fe *FedError) time.Duration {
	backoff := time.Duration(float64(re.config.InitialDelay) * math.Pow(re.config.Multiplier, float64(attempt-1)))
	if backoff > re.config.MaxDelay {
		backoff = re.config.MaxDelay
	}

	min := re.minimumDelayFor(fe)
	delay := backoff
	if min > delay {
		delay = min
	}

	if re.config.Jitter {
		delay += time.Duration(rand.Float64() * float64(delay) * 0.1)
	}
	return delay
}

func (re *RetryExecutor) minimumDelayFor(fe *FedError) time.Duration {
	if fe == nil {
		return 0
	}
	switch fe.Kind {
	case KindRateLimit:
		if v, ok := fe.Details["retry_after_seconds"].(int); ok && v > 0 {
			return time.Duration(v+1) * time.Second
		}
		return 61 * time.Second
	case KindAPI:
		if fe.StatusCode == 503 {
			return 10 * time.Second
		}
		if fe.StatusCode == 504 {
			return 5 * time.Second
		}
		return 0
	case KindNetwork:
		return 2 * time.Second
	default:
		if fe.Message != "" {
			msg := strings.ToLower(fe.Message)
			if strings.Contains(msg, "timeout") {
				return 2 * time.Second
			}
		}
		return 0
	}
}

func (re *RetryExecutor) recordOutcome(success bool, attempts int) {
	re.mu.Lock()
	defer re.mu.Unlock()
	if success {
		re.stats.SuccessfulRetries++
	} else {
		re.stats.FailedRetries++
	}
	total := re.stats.SuccessfulRetries + re.stats.FailedRetries
	if total > 0 {
		re.stats.AverageAttempts = (re.stats.AverageAttempts*float64(total-1) + float64(attempts)) / float64(total)
	}
}

func (re *RetryExecutor) Stats() RetryStats {
	re.mu.Lock()
	defer re.mu.Unlock()
	return re.stats
}
