package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State represents circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a CircuitBreaker
type Settings struct {
	Name         string
	MaxFailures  int
	ResetTimeout time.Duration

	// OnStateChange is called after every transition, outside the lock
	OnStateChange func(name string, from, to State)

	// IsFailure decides which errors count against the breaker. Errors it
	// rejects are returned to the caller without changing state. The default
	// ignores context.Canceled.
	IsFailure func(err error) bool

	// Now overrides the clock in tests
	Now func() time.Time
}

func defaultIsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// CircuitBreaker guards calls to the LLM provider.
// After MaxFailures consecutive failures it opens and rejects calls until
// ResetTimeout has passed, then lets a single probe through.
type CircuitBreaker struct {
	name          string
	maxFailures   int
	resetTimeout  time.Duration
	onStateChange func(name string, from, to State)
	isFailure     func(err error) bool
	now           func() time.Time

	mu              sync.RWMutex
	state           State
	generation      uint64
	failures        int
	probeInFlight   bool
	lastFailureTime time.Time
	lastStateChange time.Time
}

// New creates a circuit breaker from settings
func New(s Settings) *CircuitBreaker {
	if s.MaxFailures <= 0 {
		s.MaxFailures = 5
	}
	if s.ResetTimeout <= 0 {
		s.ResetTimeout = time.Minute
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.IsFailure == nil {
		s.IsFailure = defaultIsFailure
	}

	return &CircuitBreaker{
		name:            s.Name,
		maxFailures:     s.MaxFailures,
		resetTimeout:    s.ResetTimeout,
		onStateChange:   s.OnStateChange,
		isFailure:       s.IsFailure,
		now:             s.Now,
		state:           StateClosed,
		lastStateChange: s.Now(),
	}
}

// NewCircuitBreaker creates a circuit breaker with default hooks
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return New(Settings{MaxFailures: maxFailures, ResetTimeout: resetTimeout})
}

// Call executes a function with circuit breaker protection
func (cb *CircuitBreaker) Call(fn func() error) error {
	generation, err := cb.beforeCall()
	if err != nil {
		return err
	}

	err = fn()
	cb.afterCall(generation, err)

	return err
}

// beforeCall checks if call is allowed and returns the generation the call
// was admitted in
func (cb *CircuitBreaker) beforeCall() (uint64, error) {
	cb.mu.Lock()

	var (
		from, to State
		changed  bool
		err      error
	)

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.resetTimeout {
			from, to, changed = cb.transition(StateHalfOpen)
			cb.probeInFlight = true
		} else {
			err = ErrCircuitOpen
		}

	case StateHalfOpen:
		if cb.probeInFlight {
			err = ErrTooManyRequests
		} else {
			cb.probeInFlight = true
		}
	}

	generation := cb.generation
	cb.mu.Unlock()

	if changed {
		cb.notify(from, to)
	}
	return generation, err
}

// afterCall updates circuit breaker state after call. Results of calls
// admitted before the last transition are dropped, so in half-open only
// the probe can move the breaker.
func (cb *CircuitBreaker) afterCall(generation uint64, err error) {
	cb.mu.Lock()

	var (
		from, to State
		changed  bool
	)

	switch {
	case generation != cb.generation:
		// admitted before the last transition
	case err != nil && !cb.isFailure(err):
		if cb.state == StateHalfOpen {
			cb.probeInFlight = false
		}
	case err != nil:
		cb.failures++
		cb.lastFailureTime = cb.now()

		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.maxFailures {
				from, to, changed = cb.transition(StateOpen)
			}
		case StateHalfOpen:
			cb.probeInFlight = false
			from, to, changed = cb.transition(StateOpen)
		}
	default:
		switch cb.state {
		case StateHalfOpen:
			cb.probeInFlight = false
			cb.failures = 0
			from, to, changed = cb.transition(StateClosed)
		case StateClosed:
			cb.failures = 0
		}
	}

	cb.mu.Unlock()

	if changed {
		cb.notify(from, to)
	}
}

// transition must be called with mu held
func (cb *CircuitBreaker) transition(to State) (State, State, bool) {
	from := cb.state
	if from == to {
		return from, to, false
	}
	cb.state = to
	cb.generation++
	cb.lastStateChange = cb.now()
	return from, to, true
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// Name returns the breaker name used in logs and metrics
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns current circuit breaker state
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Stats returns circuit breaker statistics
func (cb *CircuitBreaker) Stats() (state State, failures int, since time.Time) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state, cb.failures, cb.lastStateChange
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from, to, changed := cb.transition(StateClosed)
	cb.failures = 0
	cb.probeInFlight = false
	cb.mu.Unlock()

	if changed {
		cb.notify(from, to)
	}
}
