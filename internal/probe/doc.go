// Package probe actively checks guarded dependencies on an interval and
// feeds the outcomes into their circuit breakers, so a circuit can trip
// or recover even when no caller traffic is flowing.
package probe
