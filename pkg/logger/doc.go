// Package logger provides structured JSON logging with configurable log levels.
// It wraps the standard log/slog package and provides circuit breaker hooks
// that report state transitions and rejected calls to the application log.
package logger
