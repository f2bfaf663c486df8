package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerCalls    *prometheus.CounterVec
	cacheEvents      *prometheus.CounterVec
	synthesisLatency *prometheus.HistogramVec
	contextRefreshes *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		providerCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_provider_calls_total",
				Help: "Total number of external provider calls by outcome",
			},
			[]string{"source", "status"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_cache_events_total",
				Help: "Cache hits and misses by cache name",
			},
			[]string{"cache", "result"},
		),
		synthesisLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketbrief_synthesis_duration_seconds",
				Help:    "Duration of LLM context synthesis in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tier"},
		),
		contextRefreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_context_refreshes_total",
				Help: "Completed context refresh cycles per tier",
			},
			[]string{"tier"},
		),
	}
}

// RecordProviderCall records one provider call outcome.
func (r *Recorder) RecordProviderCall(source, status string) {
	r.providerCalls.WithLabelValues(source, status).Inc()
}

// RecordCacheEvent records a cache hit or miss.
func (r *Recorder) RecordCacheEvent(cache, result string) {
	r.cacheEvents.WithLabelValues(cache, result).Inc()
}

// RecordSynthesis records synthesis latency in seconds.
func (r *Recorder) RecordSynthesis(tier string, seconds float64) {
	r.synthesisLatency.WithLabelValues(tier).Observe(seconds)
}

// RecordContextRefresh records a completed refresh for a tier.
func (r *Recorder) RecordContextRefresh(tier string) {
	r.contextRefreshes.WithLabelValues(tier).Inc()
}
