package metrics_test

import (
	"context"
	"errors"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/circuitguard/internal/metrics"
	"github.com/angeloszaimis/circuitguard/pkg/circuitbreaker"
)

var _ = Describe("Collector", func() {
	var (
		registry  *circuitbreaker.Registry
		collector *metrics.Collector
	)

	scrape := func() string {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("GET", "/metrics", nil)
		collector.Handler().ServeHTTP(recorder, request)
		return recorder.Body.String()
	}

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(circuitbreaker.Config{
			FailureThreshold: 2,
		})
		collector = metrics.NewCollector(registry)
		registry.SetDefaults(circuitbreaker.Config{
			OnStateChange: collector.StateChangeHook(),
		})
	})

	It("should expose state and totals per breaker", func() {
		cb := registry.Get("github-api")
		cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
			return "ok", nil
		})

		body := scrape()
		Expect(body).To(ContainSubstring(`circuitguard_breaker_state{breaker="github-api"} 0`))
		Expect(body).To(ContainSubstring(`circuitguard_breaker_requests_total{breaker="github-api"} 1`))
		Expect(body).To(ContainSubstring(`circuitguard_breaker_successes_total{breaker="github-api"} 1`))
	})

	It("should count rejected calls", func() {
		cb := registry.Get("agent")
		cb.Trip()
		cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
			return nil, nil
		})

		body := scrape()
		Expect(body).To(ContainSubstring(`circuitguard_breaker_state{breaker="agent"} 1`))
		Expect(body).To(ContainSubstring(`circuitguard_breaker_rejected_total{breaker="agent"} 1`))
	})

	It("should count transitions through the hook", func() {
		cb := registry.Get("flaky")
		failing := func(ctx context.Context) (any, error) {
			return nil, errors.New("boom")
		}
		cb.Execute(context.Background(), failing)
		cb.Execute(context.Background(), failing)

		body := scrape()
		Expect(body).To(ContainSubstring(
			`circuitguard_breaker_transitions_total{breaker="flaky",from="closed",to="open"} 1`))
	})

	It("should track the sliding window failure count", func() {
		cb := registry.Get("window")
		cb.RecordFailure()

		body := scrape()
		Expect(body).To(ContainSubstring(`circuitguard_breaker_window_failures{breaker="window"} 1`))
	})
})
