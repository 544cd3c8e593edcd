package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/circuitguard/pkg/circuitbreaker"
)

// Check reports whether the dependency is currently reachable.
type Check func(ctx context.Context) error

// Run probes a dependency on a fixed interval, reporting each outcome
// through the breaker's public record primitives. The Execute path is
// bypassed on purpose: probes must keep running while the circuit is
// open so that sustained recovery can close it again.
func Run(
	ctx context.Context,
	cb *circuitbreaker.CircuitBreaker,
	check Check,
	interval time.Duration,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Probe stopped",
				slog.String("dependency", cb.Name()))
			return

		case <-ticker.C:
			if err := check(ctx); err != nil {
				cb.RecordFailure()
				logger.Debug("Probe failed",
					slog.String("dependency", cb.Name()),
					slog.String("error", err.Error()))
				continue
			}

			cb.RecordSuccess()
		}
	}
}

// HTTPCheck builds a Check that issues a GET against url and treats any
// 2xx response as healthy.
func HTTPCheck(url string) Check {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		res, err := client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode < 200 || res.StatusCode > 299 {
			return &UnhealthyStatusError{StatusCode: res.StatusCode}
		}

		return nil
	}
}

// UnhealthyStatusError reports a probe response outside the 2xx range.
type UnhealthyStatusError struct {
	StatusCode int
}

func (e *UnhealthyStatusError) Error() string {
	return fmt.Sprintf("unhealthy status %d", e.StatusCode)
}
