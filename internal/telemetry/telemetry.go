package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry tracks request metrics on its own prometheus registry.
type Telemetry struct {
	registry        *prometheus.Registry
	queries         *prometheus.CounterVec
	queryDuration   prometheus.Histogram
	speechRequests  *prometheus.CounterVec
	speechFallbacks *prometheus.CounterVec
}

func New() *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		registry: reg,
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_queries_total",
			Help: "Answered questions by mode and detected emotion.",
		}, []string{"mode", "emotion"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutor_query_duration_seconds",
			Help:    "End-to-end query processing time.",
			Buckets: prometheus.DefBuckets,
		}),
		speechRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_speech_requests_total",
			Help: "Speech conversions by direction and serving provider.",
		}, []string{"direction", "provider"}),
		speechFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_speech_fallbacks_total",
			Help: "Speech conversions served by a degraded fallback.",
		}, []string{"direction"}),
	}
	reg.MustRegister(t.queries, t.queryDuration, t.speechRequests, t.speechFallbacks)
	return t
}

func (t *Telemetry) RecordQuery(mode, emotion string, seconds float64) {
	t.queries.WithLabelValues(mode, emotion).Inc()
	t.queryDuration.Observe(seconds)
}

func (t *Telemetry) RecordSpeech(direction, provider string, degraded bool) {
	t.speechRequests.WithLabelValues(direction, provider).Inc()
	if degraded {
		t.speechFallbacks.WithLabelValues(direction).Inc()
	}
}

// RegisterSessionGauge exposes the live session count.
func (t *Telemetry) RegisterSessionGauge(count func() float64) {
	t.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tutor_active_sessions",
		Help: "Sessions currently tracked by the session store.",
	}, count))
}

// Handler serves the metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
