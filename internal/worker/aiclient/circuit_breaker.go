package aiclient

import (
	"errors"
	"sync"
	"time"

	"github.com/sentrygrid/camcoord/internal/metrics"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// ErrCircuitOpen is returned by Execute when the breaker is open.
var ErrCircuitOpen = errors.New("aiclient: circuit breaker is open")

// CircuitBreaker prevents the AI Worker from hammering a down model host:
// after a run of failures it stops dispatching calls for resetTimeout, then
// allows one trial call through before fully closing again.
type CircuitBreaker struct {
	mu               sync.RWMutex
	state            State
	failures         int
	failureThreshold int
	resetTimeout     time.Duration
	lastFailure      time.Time
}

// NewCircuitBreaker returns a breaker that opens after threshold
// consecutive failures and tries a half-open probe after resetTimeout.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     resetTimeout,
	}
	metrics.SetCircuitBreakerState("aiclient", stateLabel(cb.state))
	return cb
}

// Execute runs fn if the circuit is closed or half-open, recording the
// outcome against the breaker's state machine.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	prev := cb.state
	switch cb.state {
	case StateClosed:
		cb.mu.Unlock()
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) > cb.resetTimeout {
			cb.state = StateHalfOpen
			state := cb.state
			cb.mu.Unlock()
			if state != prev {
				metrics.SetCircuitBreakerState("aiclient", stateLabel(state))
			}
			return true
		}
		cb.mu.Unlock()
		return false
	default: // StateHalfOpen: allow the probe through
		cb.mu.Unlock()
		return true
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	prev := cb.state
	cb.failures++
	cb.lastFailure = time.Now()
	if cb.state == StateHalfOpen {
		cb.state = StateOpen
	} else if cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
	}
	state := cb.state
	cb.mu.Unlock()
	if state != prev {
		metrics.SetCircuitBreakerState("aiclient", stateLabel(state))
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	prev := cb.state
	cb.failures = 0
	cb.state = StateClosed
	state := cb.state
	cb.mu.Unlock()
	if state != prev {
		metrics.SetCircuitBreakerState("aiclient", stateLabel(state))
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func stateLabel(s State) string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
