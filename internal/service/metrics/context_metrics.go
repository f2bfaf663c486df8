package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ContextLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketbrief",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of context API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ContextErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketbrief",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by context API endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ContextLatency, ContextErrors)
	})
}
