package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

type CircuitState int

const (
	// Closed lets every call through.
	Closed CircuitState = iota
	// Open rejects calls until RecoveryTimeout has passed.
	Open
	// HalfOpen lets trial calls through to test recovery.
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(func() error) error
	State() CircuitState
	Metrics() Metrics
	Reset()
}

type Config struct {
	FailureThreshold int           // consecutive failures that open the circuit
	RecoveryTimeout  time.Duration // wait before the first HalfOpen trial
	SuccessThreshold int           // HalfOpen successes needed to close
	// OnStateChange runs after every transition, outside the breaker's lock.
	OnStateChange    func(from, to CircuitState)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 3,
	}
}

type Metrics struct {
	State        CircuitState
	FailureCount int
	SuccessCount int
	LastFailure  time.Time
	NextAttempt  time.Time
}

type transition struct {
	from, to CircuitState
}

type circuitBreaker struct {
	config *Config
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time
	nextAttempt time.Time
}

// NewCircuitBreaker applies DefaultConfig when config is nil.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	return newCircuitBreaker(config, time.Now)
}

func newCircuitBreaker(config *Config, now func() time.Time) *circuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &circuitBreaker{config: config, now: now, state: Closed}
}

// setState records a transition for notify. Callers hold cb.mu.
func (cb *circuitBreaker) setState(to CircuitState, changes *[]transition) {
	if cb.state == to {
		return
	}
	*changes = append(*changes, transition{from: cb.state, to: to})
	cb.state = to

	switch to {
	case Open:
		cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
	case HalfOpen:
		cb.successes = 0
	case Closed:
		cb.failures = 0
		cb.successes = 0
	}
}

func (cb *circuitBreaker) notify(changes []transition) {
	if cb.config.OnStateChange == nil {
		return
	}
	for _, c := range changes {
		cb.config.OnStateChange(c.from, c.to)
	}
}

// Call runs fn unless the circuit is open. fn runs without the lock held.
func (cb *circuitBreaker) Call(fn func() error) error {
	var changes []transition

	cb.mu.Lock()
	if cb.state == Open && cb.now().After(cb.nextAttempt) {
		cb.setState(HalfOpen, &changes)
	}
	allowed := cb.state != Open
	cb.mu.Unlock()
	cb.notify(changes)

	if !allowed {
		return ErrCircuitOpen
	}

	err := fn()

	changes = changes[:0]
	cb.mu.Lock()
	if err != nil {
		cb.onFailure(&changes)
	} else {
		cb.onSuccess(&changes)
	}
	cb.mu.Unlock()
	cb.notify(changes)

	return err
}

func (cb *circuitBreaker) onFailure(changes *[]transition) {
	cb.failures++
	cb.lastFailure = cb.now()

	if cb.state == HalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.setState(Open, changes)
	}
}

func (cb *circuitBreaker) onSuccess(changes *[]transition) {
	cb.failures = 0
	if cb.state != HalfOpen {
		return
	}
	cb.successes++
	if cb.successes >= cb.config.SuccessThreshold {
		cb.setState(Closed, changes)
	}
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Metrics() Metrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Metrics{
		State:        cb.state,
		FailureCount: cb.failures,
		SuccessCount: cb.successes,
		LastFailure:  cb.lastFailure,
		NextAttempt:  cb.nextAttempt,
	}
}

func (cb *circuitBreaker) Reset() {
	var changes []transition

	cb.mu.Lock()
	cb.setState(Closed, &changes)
	cb.failures = 0
	cb.successes = 0
	cb.mu.Unlock()

	cb.notify(changes)
}
