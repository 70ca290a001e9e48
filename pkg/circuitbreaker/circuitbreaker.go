package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without calling fn while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

type Settings struct {
	Name string
	// MaxRequests is the number of consecutive failures that opens the breaker.
	MaxRequests int
	// Interval resets the failure count when no failure happened for this long.
	Interval time.Duration
	// Timeout is how long the breaker stays open before a trial call.
	Timeout time.Duration
}

type CircuitBreaker struct {
	name        string
	maxRequests int
	interval    time.Duration
	timeout     time.Duration
	failures    int
	lastFailure time.Time
	state       State
	now         func() time.Time
	mu          sync.Mutex
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxRequests < 1 {
		settings.MaxRequests = 1
	}
	return &CircuitBreaker{
		name:        settings.Name,
		maxRequests: settings.MaxRequests,
		interval:    settings.Interval,
		timeout:     settings.Timeout,
		state:       StateClosed,
		now:         time.Now,
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailure) <= cb.timeout {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.state = StateHalfOpen
	}
	if cb.state == StateClosed && cb.interval > 0 && cb.failures > 0 && cb.now().Sub(cb.lastFailure) > cb.interval {
		cb.failures = 0
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = cb.now()
		if cb.state == StateHalfOpen || cb.failures >= cb.maxRequests {
			cb.state = StateOpen
		}
		return err
	}

	cb.state = StateClosed
	cb.failures = 0
	return nil
}
