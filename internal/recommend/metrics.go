package recommend

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts orchestrator outcomes. Register [Metrics.Collectors] with a registry to expose them.
type Metrics struct {
	requests *prometheus.CounterVec
	fallback *prometheus.CounterVec
	latency  prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emotune",
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Recommendation requests by emotion and result source.",
		}, []string{"emotion", "source"}),
		fallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emotune",
			Subsystem: "recommend",
			Name:      "fallback_total",
			Help:      "Requests served from the fallback table by reason.",
		}, []string{"reason"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "emotune",
			Subsystem: "recommend",
			Name:      "catalog_duration_seconds",
			Help:      "Latency of catalog recommendation calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.fallback, m.latency}
}
