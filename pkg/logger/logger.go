package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/angeloszaimis/circuitguard/pkg/circuitbreaker"
)

func New(lvl string, addSource bool, enviroment string) *slog.Logger {

	level := parseLevel(lvl)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
	}
	var handler slog.Handler

	if strings.ToLower(enviroment) == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(
		slog.String("environment", enviroment),
	)
}

// StateChangeHook returns a breaker hook that logs every transition.
// Opening logs at warn, recovery at info.
func StateChangeHook(log *slog.Logger) circuitbreaker.StateChangeHook {
	return func(from, to circuitbreaker.State, cb *circuitbreaker.CircuitBreaker) {
		attrs := []any{
			slog.String("breaker", cb.Name()),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		}

		switch to {
		case circuitbreaker.StateOpen:
			log.Warn("Circuit opened", attrs...)
		case circuitbreaker.StateHalfOpen:
			log.Info("Circuit probing recovery", attrs...)
		default:
			log.Info("Circuit closed", attrs...)
		}
	}
}

// RejectHook returns a breaker hook that logs fast-failed calls at debug,
// to keep a hammering caller from flooding the log.
func RejectHook(log *slog.Logger) circuitbreaker.RejectHook {
	return func(cb *circuitbreaker.CircuitBreaker) {
		log.Debug("Call rejected by open circuit",
			slog.String("breaker", cb.Name()))
	}
}

func parseLevel(level string) slog.Level {

	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
