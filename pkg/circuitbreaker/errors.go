package circuitbreaker

import (
	"errors"
	"fmt"
	"time"
)

// ErrOpen is the sentinel matched by errors.Is when a call is rejected
// because the circuit is open. The concrete error is *OpenCircuitError.
var ErrOpen = errors.New("circuit breaker is open")

// OpenCircuitError is returned by Execute when the circuit rejects a call.
// It is never returned for failures of the wrapped operation itself.
type OpenCircuitError struct {
	Name          string
	State         State
	NextAttemptAt *time.Time
}

func (e *OpenCircuitError) Error() string {
	if e.NextAttemptAt != nil {
		return fmt.Sprintf("circuit breaker %q is %s, next attempt at %s",
			e.Name, e.State, e.NextAttemptAt.Format(time.RFC3339))
	}

	return fmt.Sprintf("circuit breaker %q is %s", e.Name, e.State)
}

// Is reports whether target is ErrOpen, so callers can distinguish
// rejections from operation errors without a type assertion.
func (e *OpenCircuitError) Is(target error) bool {
	return target == ErrOpen
}
