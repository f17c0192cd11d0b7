// Package monitoring exposes prometheus metrics for the compliance engine.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector handles metrics collection and reporting for check runs.
type Collector struct {
	registry *prometheus.Registry

	checksTotal   prometheus.Counter
	findingsTotal *prometheus.CounterVec
	parseTier     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	dishesAdded   prometheus.Counter
}

// NewCollector creates a collector with all engine metrics registered on a
// dedicated registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		checksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "menu_checks_total",
			Help: "Number of compliance check runs executed",
		}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menu_check_findings_total",
			Help: "Findings produced by check runs",
		}, []string{"severity"}),
		parseTier: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menu_parse_tier_total",
			Help: "Structuring tier that produced each run's day data",
		}, []string{"tier"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "menu_check_run_duration_seconds",
			Help:    "Wall time of a full compliance check run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		dishesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dish_catalog_added_total",
			Help: "New dishes added to the catalog by check runs",
		}),
	}

	c.registry.MustRegister(c.checksTotal, c.findingsTotal, c.parseTier, c.runDuration, c.dishesAdded)
	return c
}

// Registry returns the registry backing the /metrics endpoint.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRun records the outcome of one completed check run.
func (c *Collector) RecordRun(tier string, critical, warning, passed, dishesAdded int, elapsed time.Duration) {
	c.checksTotal.Inc()
	c.parseTier.WithLabelValues(tier).Inc()
	c.findingsTotal.WithLabelValues("critical").Add(float64(critical))
	c.findingsTotal.WithLabelValues("warning").Add(float64(warning))
	c.findingsTotal.WithLabelValues("passed").Add(float64(passed))
	c.runDuration.Observe(elapsed.Seconds())
	c.dishesAdded.Add(float64(dishesAdded))
}
