package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lenxys",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lenxys",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by API endpoint",
		},
		[]string{"endpoint"},
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lenxys",
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected forecast stream clients",
		},
	)
)

// Register adds the API collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, StreamClients)
	})
}

// Observe records the latency of endpoint since start and counts 5xx responses.
func Observe(endpoint string, start time.Time, status int) {
	APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if status >= 500 {
		APIErrors.WithLabelValues(endpoint).Inc()
	}
}
