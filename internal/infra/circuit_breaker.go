package infra

import (
	"errors"
	"sync"
	"time"
)

// CircuitBreaker guards calls to the external rates feed. When the feed is
// down the shop keeps trading on its last stored rates, so the breaker's job
// is to stop the cron from hammering a dead endpoint, not to block trading.
//
// closed: calls pass through. open: calls fast-fail with ErrCircuitOpen.
// half-open: a single probe is let through after OpenTimeout.

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute while the breaker is tripped.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	// FailureThreshold is the run of consecutive failures that trips the
	// breaker open.
	FailureThreshold int
	// SuccessThreshold is the run of consecutive half-open successes that
	// closes it again.
	SuccessThreshold int
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// DefaultCBConfig matches the rates cron cadence: one probe a minute once
// the feed has failed five polls in a row.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
	}
}

type CircuitBreaker struct {
	mu           sync.Mutex
	state        CBState
	failures     int
	successes    int
	lastFailure  time.Time
	failLimit    int
	successLimit int
	openTimeout  time.Duration
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}
	return &CircuitBreaker{
		state:        CBClosed,
		failLimit:    cfg.FailureThreshold,
		successLimit: cfg.SuccessThreshold,
		openTimeout:  cfg.OpenTimeout,
	}
}

// State reports the current state, transitioning open → half-open once the
// open timeout has elapsed. Exposed on the health endpoint.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CBOpen && time.Since(cb.lastFailure) >= cb.openTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
	}
	return cb.state
}

// Execute runs fn unless the breaker is open, and records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

// recordFailure and recordSuccess require cb.mu held.

func (cb *CircuitBreaker) recordFailure() {
	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case CBClosed:
		if cb.failures >= cb.failLimit {
			cb.state = CBOpen
			cb.successes = 0
		}
	case CBHalfOpen:
		// Failed probe reopens immediately.
		cb.state = CBOpen
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.successLimit {
			cb.state = CBClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
}
