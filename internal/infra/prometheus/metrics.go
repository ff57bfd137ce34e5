package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trackdesk"

// Metrics holds the application collectors.
type Metrics struct {
	backendCalls    *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	renderIncidents prometheus.Counter
	submissions     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls to the track metadata backend by operation and outcome.",
		}, []string{"operation", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of calls to the track metadata backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		renderIncidents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_incidents_total",
			Help:      "Renders replaced by the fallback page.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_submissions_total",
			Help:      "Form submissions by page and result.",
		}, []string{"page", "result"}),
	}

	if reg != nil {
		reg.MustRegister(m.backendCalls, m.backendLatency, m.renderIncidents, m.submissions)
	}
	return m
}

// ObserveCall records one backend call.
func (m *Metrics) ObserveCall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(operation, outcome).Inc()
	m.backendLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncRenderIncident counts one fallback render.
func (m *Metrics) IncRenderIncident() {
	if m == nil {
		return
	}
	m.renderIncidents.Inc()
}

// ObserveSubmission counts one form submission; result is validation, busy, success or failed.
func (m *Metrics) ObserveSubmission(page, result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(page, result).Inc()
}
