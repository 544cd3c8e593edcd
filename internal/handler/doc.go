// Package handler implements the HTTP ops surface for the breaker
// registry: JSON stats snapshots and manual trip/reset controls.
package handler
