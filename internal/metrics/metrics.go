package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angeloszaimis/circuitguard/pkg/circuitbreaker"
)

const (
	namespace = "circuitguard"
	subsystem = "breaker"
)

// Collector exposes breaker metrics in Prometheus format. Gauges and
// lifetime totals are read from the breaker registry at scrape time;
// state transitions are counted through a breaker hook because they
// cannot be reconstructed from snapshots.
type Collector struct {
	breakers *circuitbreaker.Registry
	registry *prometheus.Registry

	transitionsTotal *prometheus.CounterVec

	stateDesc          *prometheus.Desc
	windowFailuresDesc *prometheus.Desc
	requestsDesc       *prometheus.Desc
	successesDesc      *prometheus.Desc
	failuresDesc       *prometheus.Desc
	rejectedDesc       *prometheus.Desc
}

func NewCollector(breakers *circuitbreaker.Registry) *Collector {
	c := &Collector{
		breakers: breakers,
		registry: prometheus.NewRegistry(),

		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transitions_total",
				Help:      "Total number of circuit breaker state transitions",
			},
			[]string{"breaker", "from", "to"},
		),

		stateDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "state"),
			"Current circuit breaker state (0=closed, 1=open, 2=half-open)",
			[]string{"breaker"}, nil,
		),
		windowFailuresDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "window_failures"),
			"Failures currently counted in the sliding window",
			[]string{"breaker"}, nil,
		),
		requestsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "requests_total"),
			"Total calls seen by the breaker, including rejected ones",
			[]string{"breaker"}, nil,
		),
		successesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "successes_total"),
			"Total successful outcomes recorded",
			[]string{"breaker"}, nil,
		),
		failuresDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "failures_total"),
			"Total failed outcomes recorded",
			[]string{"breaker"}, nil,
		),
		rejectedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "rejected_total"),
			"Total calls rejected while the circuit was open",
			[]string{"breaker"}, nil,
		),
	}

	c.registry.MustRegister(c.transitionsTotal)
	c.registry.MustRegister(c)

	return c
}

// StateChangeHook returns a breaker hook feeding the transitions counter.
// Compose it with other hooks via circuitbreaker.ComposeStateChangeHooks.
func (c *Collector) StateChangeHook() circuitbreaker.StateChangeHook {
	return func(from, to circuitbreaker.State, cb *circuitbreaker.CircuitBreaker) {
		c.transitionsTotal.WithLabelValues(cb.Name(), from.String(), to.String()).Inc()
	}
}

// Handler returns the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stateDesc
	ch <- c.windowFailuresDesc
	ch <- c.requestsDesc
	ch <- c.successesDesc
	ch <- c.failuresDesc
	ch <- c.rejectedDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, stats := range c.breakers.AllStats() {
		ch <- prometheus.MustNewConstMetric(c.stateDesc,
			prometheus.GaugeValue, float64(stats.State), name)
		ch <- prometheus.MustNewConstMetric(c.windowFailuresDesc,
			prometheus.GaugeValue, float64(stats.Failures), name)
		ch <- prometheus.MustNewConstMetric(c.requestsDesc,
			prometheus.CounterValue, float64(stats.TotalRequests), name)
		ch <- prometheus.MustNewConstMetric(c.successesDesc,
			prometheus.CounterValue, float64(stats.TotalSuccesses), name)
		ch <- prometheus.MustNewConstMetric(c.failuresDesc,
			prometheus.CounterValue, float64(stats.TotalFailures), name)
		ch <- prometheus.MustNewConstMetric(c.rejectedDesc,
			prometheus.CounterValue, float64(stats.TotalRejected), name)
	}
}
