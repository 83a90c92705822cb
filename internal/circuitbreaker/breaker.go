// Package circuitbreaker provides a defensive mechanism that takes
// repeatedly failing bridge protocols out of quote aggregation until they
// recover, so one broken collaborator cannot slow every request.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State represents the current state of a protocol's circuit
type State int

// Circuit states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, protocol skipped
	StateHalfOpen              // Cooldown elapsed, probing with live traffic
)

// String returns the conventional state name
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

// Options configures a CircuitBreaker
type Options struct {
	// FailureThreshold is the number of consecutive failures that trips a
	// protocol's circuit
	FailureThreshold int

	// CooldownPeriod is how long a tripped circuit stays open before a
	// probe is allowed
	CooldownPeriod time.Duration

	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the circuit again
	SuccessThreshold int

	// OnTrip is called when a protocol's circuit opens
	OnTrip func(protocolID string, reason string)
}

// CircuitBreaker tracks collaborator failures per protocol
type CircuitBreaker struct {
	opts     Options
	mu       sync.Mutex
	circuits map[string]*circuit
}

type circuit struct {
	state     State
	failures  int
	successes int
	lastTrip  time.Time
	lastErr   string
}

// New creates a CircuitBreaker with the provided options, applying
// defaults for unset fields
func New(opts Options) *CircuitBreaker {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 3
	}
	if opts.CooldownPeriod <= 0 {
		opts.CooldownPeriod = 2 * time.Minute
	}
	if opts.SuccessThreshold <= 0 {
		opts.SuccessThreshold = 2
	}
	return &CircuitBreaker{
		opts:     opts,
		circuits: make(map[string]*circuit),
	}
}

// Allow reports whether the protocol should be queried. An open circuit
// whose cooldown has elapsed moves to half-open and allows one probe.
func (cb *CircuitBreaker) Allow(protocolID string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.circuit(protocolID)
	switch c.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(c.lastTrip) >= cb.opts.CooldownPeriod {
			c.state = StateHalfOpen
			c.successes = 0
			logrus.WithField("protocol", protocolID).Info("Circuit half-open, probing protocol")
			return true
		}
		return false
	}
	return true
}

// RecordSuccess notes a successful collaborator call for the protocol
func (cb *CircuitBreaker) RecordSuccess(protocolID string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.circuit(protocolID)
	switch c.state {
	case StateHalfOpen:
		c.successes++
		if c.successes >= cb.opts.SuccessThreshold {
			c.state = StateClosed
			c.failures = 0
			logrus.WithField("protocol", protocolID).Info("Circuit closed, protocol recovered")
		}
	case StateClosed:
		c.failures = 0
	}
}

// RecordFailure notes a failed collaborator call, tripping the circuit at
// the failure threshold
func (cb *CircuitBreaker) RecordFailure(protocolID string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.circuit(protocolID)
	c.lastErr = err.Error()

	if c.state == StateHalfOpen {
		cb.trip(protocolID, c, "probe failed: "+c.lastErr)
		return
	}

	c.failures++
	if c.state == StateClosed && c.failures >= cb.opts.FailureThreshold {
		cb.trip(protocolID, c, c.lastErr)
	}
}

// StateOf returns the current state of a protocol's circuit
func (cb *CircuitBreaker) StateOf(protocolID string) State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.circuit(protocolID).state
}

func (cb *CircuitBreaker) circuit(protocolID string) *circuit {
	c, ok := cb.circuits[protocolID]
	if !ok {
		c = &circuit{state: StateClosed}
		cb.circuits[protocolID] = c
	}
	return c
}

// trip opens the circuit; callers hold cb.mu
func (cb *CircuitBreaker) trip(protocolID string, c *circuit, reason string) {
	c.state = StateOpen
	c.lastTrip = time.Now()
	c.successes = 0

	logrus.WithFields(logrus.Fields{
		"protocol": protocolID,
		"reason":   reason,
	}).Warn("Circuit breaker tripped")

	if cb.opts.OnTrip != nil {
		cb.opts.OnTrip(protocolID, reason)
	}
}
