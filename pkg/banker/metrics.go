package banker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mercator-hq/banker/pkg/banker/evaluate"
)

// Metrics contains Prometheus metrics for a Bank.
type Metrics struct {
	// Request decisions
	decisions *prometheus.CounterVec

	// Caller errors (bad index, malformed vector)
	rejected *prometheus.CounterVec

	// Safety checks and their verdicts
	safetyChecks *prometheus.CounterVec

	// Audit runs and violations
	audits *prometheus.CounterVec

	// Units currently available per resource label
	available *prometheus.GaugeVec

	// Releases
	releases prometheus.Counter

	// Evaluation latency
	evaluateDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// falls back to the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "banker"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total number of request decisions by outcome and refusal reason",
			},
			[]string{"outcome", "reason", "policy"},
		),

		rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invalid_requests_total",
				Help:      "Total number of malformed requests rejected before evaluation",
			},
			[]string{"operation"},
		),

		safetyChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "safety_checks_total",
				Help:      "Total number of explicit safety checks by verdict",
			},
			[]string{"verdict"},
		),

		audits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audits_total",
				Help:      "Total number of state audits by result",
			},
			[]string{"result"},
		),

		available: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "available_units",
				Help:      "Units of each resource type not currently allocated",
			},
			[]string{"resource"},
		),

		releases: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "releases_total",
				Help:      "Total number of accepted releases",
			},
		),

		evaluateDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluate_duration_seconds",
				Help:      "Duration of request evaluations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),
	}
}

// RecordDecision records a request decision.
func (m *Metrics) RecordDecision(d *evaluate.Decision) {
	reason := string(d.Reason)
	if reason == "" {
		reason = "none"
	}
	m.decisions.WithLabelValues(string(d.Outcome), reason, string(d.Policy)).Inc()
}

// RecordInvalid records a malformed request.
func (m *Metrics) RecordInvalid(operation string) {
	m.rejected.WithLabelValues(operation).Inc()
}

// RecordSafetyCheck records a safety verdict.
func (m *Metrics) RecordSafetyCheck(safe bool) {
	verdict := "safe"
	if !safe {
		verdict = "unsafe"
	}
	m.safetyChecks.WithLabelValues(verdict).Inc()
}

// RecordAudit records an audit result.
func (m *Metrics) RecordAudit(ok bool) {
	result := "ok"
	if !ok {
		result = "violation"
	}
	m.audits.WithLabelValues(result).Inc()
}

// RecordRelease records an accepted release.
func (m *Metrics) RecordRelease() {
	m.releases.Inc()
}

// UpdateAvailable sets the available gauge for every resource type.
func (m *Metrics) UpdateAvailable(labels []string, available []int) {
	for j, q := range available {
		m.available.WithLabelValues(labels[j]).Set(float64(q))
	}
}

// ResetAvailable drops every available gauge series, used when the set of
// resource labels changes.
func (m *Metrics) ResetAvailable() {
	m.available.Reset()
}

// RecordEvaluateDuration records the duration of an evaluation.
func (m *Metrics) RecordEvaluateDuration(seconds float64) {
	m.evaluateDuration.Observe(seconds)
}
