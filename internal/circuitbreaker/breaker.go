package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking requests
	StateHalfOpen              // Testing with one probe
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Settings holds the per-provider breaker tunables. Zero values are
// replaced by the defaults below; Now is replaceable so tests can
// advance time without sleeping.
type Settings struct {
	FailureThreshold        int
	OpenTimeout             time.Duration
	HalfOpenSuccessToClose  int
	HalfOpenFailureToReopen int
	Now                     func() time.Time
}

const (
	DefaultFailureThreshold        = 5
	DefaultOpenTimeout             = 60 * time.Second
	DefaultHalfOpenSuccessToClose  = 1
	DefaultHalfOpenFailureToReopen = 1
)

func (s Settings) withDefaults() Settings {
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = DefaultFailureThreshold
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = DefaultOpenTimeout
	}
	if s.HalfOpenSuccessToClose <= 0 {
		s.HalfOpenSuccessToClose = DefaultHalfOpenSuccessToClose
	}
	if s.HalfOpenFailureToReopen <= 0 {
		s.HalfOpenFailureToReopen = DefaultHalfOpenFailureToReopen
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

// Snapshot is a point-in-time view of one breaker, served on /health.
type Snapshot struct {
	State               State
	ConsecutiveFailures int
	LastFailure         time.Time
	LastSuccess         time.Time
	ProbeInFlight       bool
}

// CircuitBreaker guards a single provider. All state transitions happen
// under the breaker's own mutex, so unrelated providers never contend.
type CircuitBreaker struct {
	mutex    sync.Mutex
	settings Settings

	state             State
	failures          int
	halfOpenSuccesses int
	halfOpenFailures  int
	probeInFlight     bool
	lastFailure       time.Time
	lastSuccess       time.Time
	openedAt          time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	return &CircuitBreaker{
		state:    StateClosed,
		settings: settings.withDefaults(),
	}
}

// Allow reports whether a request may be attempted right now.
//
// CLOSED always admits. OPEN admits exactly one caller once OpenTimeout
// has elapsed: that caller claims the half-open probe and every
// concurrent caller in the same window is rejected. HALF_OPEN admits
// only while no probe is in flight.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.settings.Now().Sub(cb.openedAt) < cb.settings.OpenTimeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.halfOpenSuccesses = 0
		cb.halfOpenFailures = 0
		cb.probeInFlight = true
		return true
	case StateHalfOpen:
		if cb.probeInFlight {
			return false
		}
		cb.probeInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess reports a successful call. In CLOSED it resets the
// consecutive-failure count; in HALF_OPEN it settles the probe and
// closes the circuit once enough probes have succeeded.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.lastSuccess = cb.settings.Now()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probeInFlight = false
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.settings.HalfOpenSuccessToClose {
			cb.state = StateClosed
			cb.failures = 0
		}
	}
}

// RecordFailure reports a failed call. In CLOSED it counts toward the
// failure threshold; in HALF_OPEN any probe failure reopens the circuit
// immediately regardless of the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := cb.settings.Now()
	cb.lastFailure = now

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.settings.FailureThreshold {
			cb.state = StateOpen
			cb.openedAt = now
		}
	case StateHalfOpen:
		cb.probeInFlight = false
		cb.halfOpenFailures++
		if cb.halfOpenFailures >= cb.settings.HalfOpenFailureToReopen {
			cb.state = StateOpen
			cb.openedAt = now
		}
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Snapshot returns a consistent view of the breaker's health fields.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	return Snapshot{
		State:               cb.state,
		ConsecutiveFailures: cb.failures,
		LastFailure:         cb.lastFailure,
		LastSuccess:         cb.lastSuccess,
		ProbeInFlight:       cb.probeInFlight,
	}
}
