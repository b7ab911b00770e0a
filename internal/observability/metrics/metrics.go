package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics exposes counters/histograms for calls into the ECW web EMR.
type UpstreamMetrics struct {
	requestsTotal  *prometheus.CounterVec
	latencySeconds *prometheus.HistogramVec
	authTotal      *prometheus.CounterVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecwbridge",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total requests issued against the ECW web EMR",
		}, []string{"op", "status"}),
		latencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ecwbridge",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of ECW web EMR requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		authTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecwbridge",
			Subsystem: "credentials",
			Name:      "authorizations_total",
			Help:      "Total credential authorization attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latencySeconds, m.authTotal)
	return m
}

// ObserveRequest records one upstream call with its HTTP status and duration.
func (m *UpstreamMetrics) ObserveRequest(op string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.latencySeconds.WithLabelValues(op).Observe(seconds)
}

// ObserveAuthorization records a credential authorization outcome.
func (m *UpstreamMetrics) ObserveAuthorization(status string) {
	if m == nil {
		return
	}
	m.authTotal.WithLabelValues(status).Inc()
}
