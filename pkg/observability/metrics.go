package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Admission control
	AccessDecisionsTotal *prometheus.CounterVec

	// Response building
	ResponseBuildsTotal   *prometheus.CounterVec
	ResponseBuildDuration prometheus.Histogram

	// Registry cache
	RegistryCacheLookupsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		AccessDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cas_access_decisions_total",
				Help: "Total number of service access decisions",
			},
			[]string{"outcome", "code"},
		),
		ResponseBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cas_response_builds_total",
				Help: "Total number of protocol response builds",
			},
			[]string{"result"},
		),
		ResponseBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cas_response_build_duration_seconds",
				Help:    "Protocol response build duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
		),
		RegistryCacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cas_registry_cache_lookups_total",
				Help: "Total number of registry cache lookups",
			},
			[]string{"result"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.AccessDecisionsTotal,
			m.ResponseBuildsTotal,
			m.ResponseBuildDuration,
			m.RegistryCacheLookupsTotal,
		)
	}

	return m
}

// RecordAccessDecision records the outcome of an access decision.
// code is empty for allowed requests.
func (m *Metrics) RecordAccessDecision(allowed bool, code string) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.AccessDecisionsTotal.WithLabelValues(outcome, code).Inc()
}

// RecordResponseBuild records a response build result and its duration
func (m *Metrics) RecordResponseBuild(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ResponseBuildsTotal.WithLabelValues(result).Inc()
	m.ResponseBuildDuration.Observe(duration.Seconds())
}

// RecordRegistryCacheLookup records a registry cache hit or miss
func (m *Metrics) RecordRegistryCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.RegistryCacheLookupsTotal.WithLabelValues(result).Inc()
}
