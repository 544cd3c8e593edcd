package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation, calls pass through
	StateOpen                  // Failing fast, calls rejected
	StateHalfOpen              // Probing recovery with limited calls
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state as its string form in stats snapshots.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 60 * time.Second
	DefaultSuccessThreshold = 2
	DefaultFailureWindow    = 60 * time.Second
)

// StateChangeHook is invoked synchronously on every state transition.
// RejectHook is invoked synchronously whenever a call is rejected because
// the circuit is open. Both run while the breaker's lock is held, so they
// must not call back into the breaker beyond Name.
type (
	StateChangeHook func(from, to State, cb *CircuitBreaker)
	RejectHook      func(cb *CircuitBreaker)
)

// Config holds the breaker tunables. Zero-valued fields are replaced with
// defaults at construction and treated as "keep current" by UpdateConfig.
type Config struct {
	FailureThreshold int             // failures within the window that trip the circuit
	ResetTimeout     time.Duration   // time open before allowing a half-open probe
	SuccessThreshold int             // consecutive half-open successes needed to close
	FailureWindow    time.Duration   // sliding window over which failures are counted
	OnStateChange    StateChangeHook // optional transition hook
	OnReject         RejectHook      // optional rejection hook
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: DefaultFailureThreshold,
		ResetTimeout:     DefaultResetTimeout,
		SuccessThreshold: DefaultSuccessThreshold,
		FailureWindow:    DefaultFailureWindow,
	}
}

// merged returns c overlaid with the non-zero fields of override.
func (c Config) merged(override Config) Config {
	if override.FailureThreshold > 0 {
		c.FailureThreshold = override.FailureThreshold
	}
	if override.ResetTimeout > 0 {
		c.ResetTimeout = override.ResetTimeout
	}
	if override.SuccessThreshold > 0 {
		c.SuccessThreshold = override.SuccessThreshold
	}
	if override.FailureWindow > 0 {
		c.FailureWindow = override.FailureWindow
	}
	if override.OnStateChange != nil {
		c.OnStateChange = override.OnStateChange
	}
	if override.OnReject != nil {
		c.OnReject = override.OnReject
	}
	return c
}

// Operation is an arbitrary guarded call. The breaker knows nothing about
// its semantics beyond whether it returned an error.
type Operation func(ctx context.Context) (any, error)

// Stats is a point-in-time snapshot of a breaker.
type Stats struct {
	State          State      `json:"state"`
	Failures       int        `json:"failures"`
	Successes      int        `json:"successes"`
	OpenedAt       *time.Time `json:"opened_at"`
	NextAttemptAt  *time.Time `json:"next_attempt_at"`
	TotalRequests  int64      `json:"total_requests"`
	TotalFailures  int64      `json:"total_failures"`
	TotalSuccesses int64      `json:"total_successes"`
	TotalRejected  int64      `json:"total_rejected"`
}

type CircuitBreaker struct {
	mutex  sync.Mutex
	name   string
	config Config

	state        State
	failureTimes []time.Time
	successes    int
	openedAt     time.Time // zero value means "not open"

	totalRequests  int64
	totalFailures  int64
	totalSuccesses int64
	totalRejected  int64

	nowFn func() time.Time
}

// NewCircuitBreaker creates a breaker for the named dependency in the
// closed state. Zero-valued config fields fall back to defaults.
func NewCircuitBreaker(name string, cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		name:   name,
		config: DefaultConfig().merged(cfg),
		state:  StateClosed,
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current state, applying the lazy open -> half-open
// transition if the reset timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.advanceLocked()
	return cb.state
}

// IsAllowed reports whether a call would be admitted right now.
func (cb *CircuitBreaker) IsAllowed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.advanceLocked()
	return cb.state != StateOpen
}

// Execute runs op through the breaker. If the circuit is open the call is
// rejected with *OpenCircuitError and op is never invoked. Otherwise op's
// outcome is recorded and its value or error returned verbatim. Execute
// never retries; retry policy belongs to the caller.
func (cb *CircuitBreaker) Execute(ctx context.Context, op Operation) (any, error) {
	if err := cb.admit(); err != nil {
		return nil, err
	}

	value, err := op(ctx)
	if err != nil {
		cb.RecordFailure()
		return nil, err
	}

	cb.RecordSuccess()
	return value, nil
}

// ExecuteWithFallback behaves like Execute, except that when the circuit
// rejects the call the fallback is invoked and its result returned instead.
// Errors from op itself propagate unchanged; the fallback is not consulted.
func (cb *CircuitBreaker) ExecuteWithFallback(ctx context.Context, op, fallback Operation) (any, error) {
	value, err := cb.Execute(ctx, op)
	if err != nil {
		var rejected *OpenCircuitError
		if errors.As(err, &rejected) {
			return fallback(ctx)
		}
		return nil, err
	}

	return value, nil
}

func (cb *CircuitBreaker) admit() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.totalRequests++
	cb.advanceLocked()

	if cb.state != StateOpen {
		return nil
	}

	cb.totalRejected++
	if cb.config.OnReject != nil {
		cb.config.OnReject(cb)
	}

	return &OpenCircuitError{
		Name:          cb.name,
		State:         cb.state,
		NextAttemptAt: cb.nextAttemptLocked(),
	}
}

// RecordSuccess records a successful outcome. Exposed so callers can report
// results of operations not wrapped by Execute.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.totalSuccesses++
	cb.advanceLocked()

	switch cb.state {
	case StateClosed:
		cb.pruneLocked()
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionLocked(StateClosed)
		}
	}
}

// RecordFailure records a failed outcome. Exposed so callers can report
// results of operations not wrapped by Execute.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.totalFailures++
	cb.advanceLocked()

	switch cb.state {
	case StateClosed:
		cb.failureTimes = append(cb.failureTimes, cb.now())
		cb.pruneLocked()
		if len(cb.failureTimes) >= cb.config.FailureThreshold {
			cb.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		cb.transitionLocked(StateOpen)
	}
}

// Trip forces the circuit open.
func (cb *CircuitBreaker) Trip() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.transitionLocked(StateOpen)
}

// Reset forces the circuit closed and zeroes the lifetime counters.
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.totalRequests = 0
	cb.totalFailures = 0
	cb.totalSuccesses = 0
	cb.totalRejected = 0

	cb.failureTimes = cb.failureTimes[:0]
	cb.openedAt = time.Time{}
	cb.successes = 0
	cb.transitionLocked(StateClosed)
}

// HalfOpen forces the circuit into the probing state.
func (cb *CircuitBreaker) HalfOpen() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.transitionLocked(StateHalfOpen)
}

// Stats returns a snapshot of the breaker, current with respect to the
// lazy transition check and window pruning.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.advanceLocked()
	if cb.state == StateClosed {
		cb.pruneLocked()
	}

	stats := Stats{
		State:          cb.state,
		Failures:       len(cb.failureTimes),
		Successes:      cb.successes,
		NextAttemptAt:  cb.nextAttemptLocked(),
		TotalRequests:  cb.totalRequests,
		TotalFailures:  cb.totalFailures,
		TotalSuccesses: cb.totalSuccesses,
		TotalRejected:  cb.totalRejected,
	}

	if !cb.openedAt.IsZero() {
		openedAt := cb.openedAt
		stats.OpenedAt = &openedAt
	}

	return stats
}

// Config returns a copy of the current configuration.
func (cb *CircuitBreaker) Config() Config {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.config
}

// UpdateConfig overlays the non-zero fields of cfg onto the current
// configuration. Hooks can be replaced but not removed this way.
func (cb *CircuitBreaker) UpdateConfig(cfg Config) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.config = cb.config.merged(cfg)
}

// SetClock overrides the breaker clock, primarily for tests.
func (cb *CircuitBreaker) SetClock(nowFn func() time.Time) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.nowFn = nowFn
}

// advanceLocked applies the lazy open -> half-open transition once the
// reset timeout has elapsed. Pull-based on purpose: no background timers.
func (cb *CircuitBreaker) advanceLocked() {
	if cb.state == StateOpen && !cb.openedAt.IsZero() &&
		cb.now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.state = to

	switch to {
	case StateOpen:
		cb.openedAt = cb.now()
		cb.successes = 0
		cb.failureTimes = cb.failureTimes[:0]
	case StateHalfOpen:
		cb.openedAt = time.Time{}
		cb.successes = 0
	case StateClosed:
		cb.failureTimes = cb.failureTimes[:0]
		cb.openedAt = time.Time{}
		cb.successes = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to, cb)
	}
}

// pruneLocked drops failure timestamps that fell out of the window.
func (cb *CircuitBreaker) pruneLocked() {
	cutoff := cb.now().Add(-cb.config.FailureWindow)

	kept := 0
	for kept < len(cb.failureTimes) && cb.failureTimes[kept].Before(cutoff) {
		kept++
	}
	if kept > 0 {
		cb.failureTimes = append(cb.failureTimes[:0], cb.failureTimes[kept:]...)
	}
}

func (cb *CircuitBreaker) nextAttemptLocked() *time.Time {
	if cb.openedAt.IsZero() {
		return nil
	}

	next := cb.openedAt.Add(cb.config.ResetTimeout)
	return &next
}

func (cb *CircuitBreaker) now() time.Time {
	if cb.nowFn != nil {
		return cb.nowFn()
	}
	return time.Now()
}
