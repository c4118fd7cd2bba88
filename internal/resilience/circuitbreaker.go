package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker opens after threshold consecutive failures and rejects calls
// until timeout has elapsed. It then lets a single trial call through: success
// closes it, failure opens it again.
type CircuitBreaker struct {
	mu            sync.Mutex
	state         State
	failureCount  int
	lastErrorTime time.Time
	threshold     int
	timeout       time.Duration
	trialRunning  bool
	now           func() time.Time
}

func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &CircuitBreaker{
		state:     StateClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Execute runs action unless the breaker is open. Any error returned by action
// counts as a failure.
func (cb *CircuitBreaker) Execute(action func() (any, error)) (any, error) {
	cb.mu.Lock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastErrorTime) <= cb.timeout {
			cb.mu.Unlock()
			return nil, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.trialRunning = true
	case StateHalfOpen:
		if cb.trialRunning {
			cb.mu.Unlock()
			return nil, ErrCircuitOpen
		}
		cb.trialRunning = true
	}

	cb.mu.Unlock()

	result, err := action()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.trialRunning = false

	if err != nil {
		cb.failureCount++
		cb.lastErrorTime = cb.now()

		if cb.failureCount >= cb.threshold || cb.state == StateHalfOpen {
			if cb.state != StateOpen {
				slog.Warn("Circuit Breaker OPENED", "failures", cb.failureCount)
			}
			cb.state = StateOpen
		}
		return nil, err
	}

	if cb.state == StateHalfOpen {
		slog.Info("Circuit Breaker RECOVERED")
	}
	cb.failureCount = 0
	cb.state = StateClosed

	return result, nil
}
