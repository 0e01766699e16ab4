package errors

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State is one of Closed/Open/HalfOpen per spec.md §4.3.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds the thresholds of the state machine.
type CircuitBreakerConfig struct {
	Name             string        `json:"name"`
	FailureThreshold int           `json:"failure_threshold"` // default 5
	SuccessThreshold int           `json:"success_threshold"` // default 3
	OpenDuration     time.Duration `json:"open_duration"`     // default 60s
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 3,
		OpenDuration:     60 * time.Second,
	}
}

// CircuitBreaker is a per-provider Closed/Open/HalfOpen state machine. State
// and counters are held in atomics so reads are wait-free and counter updates
// lock-free; state transitions and the state-change callback are serialized
// by mu.
type CircuitBreaker struct {
	config               CircuitBreakerConfig
	logger               *slog.Logger
	state                atomic.Int32
	consecutiveFailures  atomic.Int32
	consecutiveSuccesses atomic.Int32
	openedAt             atomic.Int64 // unix nanos

	mu            sync.Mutex // guards onStateChange invocation + transitions
	onStateChange func(from, to State)
}

func NewCircuitBreaker(config CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.OpenDuration <= 0 {
		config.OpenDuration = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CircuitBreaker{config: config, logger: logger}
}

// inspect observes an Open breaker past its open_duration and promotes it to
// HalfOpen. Called on every Allow()/Execute() so the transition is visible
// "on next inspection" as spec.md §4.3 requires.
func (cb *CircuitBreaker) inspect() State {
	current := State(cb.state.Load())
	if current == StateOpen {
		openedAt := time.Unix(0, cb.openedAt.Load())
		if time.Since(openedAt) >= cb.config.OpenDuration {
			cb.transition(StateOpen, StateHalfOpen)
			return StateHalfOpen
		}
	}
	return current
}

// CanRequest reports whether an outbound call should be attempted.
func (cb *CircuitBreaker) CanRequest() bool {
	return cb.inspect() != StateOpen
}

// Execute runs fn if the breaker allows it; an Open breaker short-circuits
// without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.CanRequest() {
		return NewError(KindOther, "CIRCUIT_OPEN", "circuit breaker open for "+cb.config.Name).
			WithComponent(cb.config.Name).
			Retryable(true).
			Build()
	}
	err := fn()
	cb.Record(err == nil)
	return err
}

// Record applies a success or failure per the transition table of spec.md §4.3.
func (cb *CircuitBreaker) Record(success bool) {
	state := State(cb.state.Load())
	if success {
		cb.consecutiveFailures.Store(0)
		switch state {
		case StateHalfOpen:
			successes := cb.consecutiveSuccesses.Add(1)
			if int(successes) >= cb.config.SuccessThreshold {
				cb.consecutiveSuccesses.Store(0)
				cb.transition(StateHalfOpen, StateClosed)
			}
		case StateClosed:
			cb.consecutiveSuccesses.Store(0)
		}
		return
	}

	cb.consecutiveSuccesses.Store(0)
	switch state {
	case StateHalfOpen:
		cb.openedAt.Store(time.Now().UnixNano())
		cb.transition(StateHalfOpen, StateOpen)
	case StateClosed:
		failures := cb.consecutiveFailures.Add(1)
		if int(failures) >= cb.config.FailureThreshold {
			cb.openedAt.Store(time.Now().UnixNano())
			cb.transition(StateClosed, StateOpen)
		}
	}
}

func (cb *CircuitBreaker) transition(from, to State) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if State(cb.state.Load()) != from {
		return
	}
	cb.state.Store(int32(to))
	if to == StateClosed {
		cb.consecutiveFailures.Store(0)
	}
	cb.logger.Info("circuit breaker state changed",
		slog.String("name", cb.config.Name),
		slog.String("from", from.String()),
		slog.String("to", to.String()))
	if cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}

func (cb *CircuitBreaker) State() State {
	return cb.inspect()
}

func (cb *CircuitBreaker) SetOnStateChange(callback func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = callback
}

// CircuitBreakerManager owns one breaker per provider id.
type CircuitBreakerManager struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	logger   *slog.Logger
}

func NewCircuitBreakerManager(logger *slog.Logger) *CircuitBreakerManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CircuitBreakerManager{breakers: make(map[string]*CircuitBreaker), logger: logger}
}

func (m *CircuitBreakerManager) GetOrCreate(name string, config CircuitBreakerConfig) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cb, ok := m.breakers[name]; ok {
		return cb
	}
	config.Name = name
	cb := NewCircuitBreaker(config, m.logger)
	m.breakers[name] = cb
	return cb
}

func (m *CircuitBreakerManager) Get(name string) (*CircuitBreaker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cb, ok := m.breakers[name]
	return cb, ok
}

func (m *CircuitBreakerManager) All() map[string]*CircuitBreaker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*CircuitBreaker, len(m.breakers))
	for k, v := range m.breakers {
		out[k] = v
	}
	return out
}

// States returns the current state of every managed breaker, keyed by
// provider id, for health reporting.
func (m *CircuitBreakerManager) States() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]State, len(m.breakers))
	for k, v := range m.breakers {
		out[k] = v.State()
	}
	return out
}
