// Package metrics exposes circuit breaker state, outcome totals, and
// transition counts as Prometheus metrics scraped from the breaker registry.
package metrics
