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
			Namespace: "sectorpulse",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of sector API endpoints",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"endpoint", "source"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sectorpulse",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by sector API endpoint",
		},
		[]string{"endpoint"},
	)

	SweepsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sectorpulse",
		Subsystem: "api",
		Name:      "sweeps_rate_limited_total",
		Help:      "On-demand sweep requests refused by the per-client limiter",
	})

	LiveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sectorpulse",
		Subsystem: "api",
		Name:      "live_clients",
		Help:      "Connected sentiment websocket clients",
	})
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, SweepsRejected, LiveClients)
	})
}

// Observe records one endpoint call. source is "cache", "live" or "store".
func Observe(endpoint, source string, start time.Time, err error) {
	APILatency.WithLabelValues(endpoint, source).Observe(time.Since(start).Seconds())
	if err != nil {
		APIErrors.WithLabelValues(endpoint).Inc()
	}
}
