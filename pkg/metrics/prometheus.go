package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	fetches        *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	sentiment      *prometheus.GaugeVec
	confidence     *prometheus.GaugeVec
	stocks         *prometheus.GaugeVec
	benchmarkPerf  prometheus.Gauge
	benchmarkState *prometheus.CounterVec
	published      *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New registers the recorder on the default registry. Call it once per process.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg, so tests can use a throwaway registry.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sectorpulse_quote_fetches_total",
				Help: "Quote fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sectorpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		sentiment: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sectorpulse_sector_sentiment_score",
				Help: "Latest sentiment score per sector",
			},
			[]string{"sector"},
		),
		confidence: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sectorpulse_sector_confidence",
				Help: "Latest data-quality confidence per sector",
			},
			[]string{"sector"},
		),
		stocks: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sectorpulse_sector_valid_stocks",
				Help: "Valid observations used in the latest aggregation",
			},
			[]string{"sector"},
		),
		benchmarkPerf: f.NewGauge(prometheus.GaugeOpts{
			Name: "sectorpulse_benchmark_performance_percent",
			Help: "Benchmark day-over-day performance served to aggregations",
		}),
		benchmarkState: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sectorpulse_benchmark_reads_total",
				Help: "Benchmark reads by cache status",
			},
			[]string{"status"},
		),
		published: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sectorpulse_results_published_total",
				Help: "Sentiment results handed to sinks",
			},
			[]string{"sink", "outcome"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sectorpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch counts one quote fetch. outcome is "ok" or an error kind.
func (r *Recorder) RecordFetch(source, outcome string) {
	r.fetches.WithLabelValues(source, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSentiment stores the latest per-sector figures.
func (r *Recorder) RecordSentiment(sector string, score, confidence float64, stocks int) {
	r.sentiment.WithLabelValues(sector).Set(score)
	r.confidence.WithLabelValues(sector).Set(confidence)
	r.stocks.WithLabelValues(sector).Set(float64(stocks))
}

// RecordBenchmark records a benchmark read.
func (r *Recorder) RecordBenchmark(status string, performance float64) {
	r.benchmarkState.WithLabelValues(status).Inc()
	r.benchmarkPerf.Set(performance)
}

// RecordPublish counts one sink delivery attempt.
func (r *Recorder) RecordPublish(sink, outcome string) {
	r.published.WithLabelValues(sink, outcome).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
