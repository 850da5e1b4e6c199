package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics exposes counters/histograms for calls to the clinic backend.
type GatewayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	failuresTotal   *prometheus.CounterVec
	sessionsCleared prometheus.Counter
}

func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total requests sent to the clinic backend",
		}, []string{"method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicdesk",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency of clinic backend requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "gateway",
			Name:      "failures_total",
			Help:      "Failed backend requests by error kind",
		}, []string{"kind"}),
		sessionsCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "session",
			Name:      "cleared_total",
			Help:      "Sessions cleared after logout or an authorization failure",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.failuresTotal, m.sessionsCleared)
	return m
}

// ObserveRequest records one completed round trip. status 0 means no
// response was received.
func (m *GatewayMetrics) ObserveRequest(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(method, label).Inc()
	m.requestLatency.WithLabelValues(method).Observe(seconds)
}

// ObserveFailure counts a failure by taxonomy kind (validation,
// authorization, network, request, or client for requests never sent).
func (m *GatewayMetrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(kind).Inc()
}

func (m *GatewayMetrics) ObserveSessionCleared() {
	if m == nil {
		return
	}
	m.sessionsCleared.Inc()
}
