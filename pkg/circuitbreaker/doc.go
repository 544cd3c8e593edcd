// Package circuitbreaker implements a per-dependency fail-fast guard around
// arbitrary operations.
//
// A circuit breaker prevents hammering a failing dependency by rejecting
// calls once failures accumulate. It has three states:
//
//   - closed: normal operation, calls pass through
//   - open: dependency failing, calls rejected immediately
//   - half-open: probing whether the dependency recovered
//
// Failures are counted over a sliding time window while closed; once the
// threshold is reached the circuit opens and calls fail fast with
// *OpenCircuitError until the reset timeout elapses. The circuit then
// admits probe calls, closing again after enough consecutive successes.
// The open -> half-open transition is checked lazily on access; there are
// no background timers.
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(circuitbreaker.Config{})
//	cb := registry.Get("github-api")
//	value, err := cb.Execute(ctx, func(ctx context.Context) (any, error) {
//	    return client.FetchRepo(ctx, name)
//	})
//	if errors.Is(err, circuitbreaker.ErrOpen) {
//	    // dependency unavailable, retry after err.(*OpenCircuitError).NextAttemptAt
//	}
package circuitbreaker
