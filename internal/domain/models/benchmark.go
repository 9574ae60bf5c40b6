package models

import "time"

// CacheStatus tags where a benchmark snapshot came from.
type CacheStatus string

const (
	CacheFresh  CacheStatus = "fresh"
	CacheCached CacheStatus = "cached"
	CacheStale  CacheStatus = "stale"
	CacheNone   CacheStatus = "none"
)

// FallbackSource marks the hardcoded neutral benchmark.
const FallbackSource = "FALLBACK"

// BenchmarkSnapshot is the reference-instrument performance used for alpha.
type BenchmarkSnapshot struct {
	Symbol        string      `json:"symbol"`
	Performance   float64     `json:"performance"`
	CurrentPrice  float64     `json:"current_price"`
	PreviousClose float64     `json:"previous_close"`
	Volume        int64       `json:"volume"`
	Source        string      `json:"source"`
	Status        CacheStatus `json:"cache_status"`
	Confidence    float64     `json:"confidence"`
	CachedAt      time.Time   `json:"cached_at"`
}

// NeutralBenchmark is served when every source fails and nothing is cached.
func NeutralBenchmark(symbol string) BenchmarkSnapshot {
	return BenchmarkSnapshot{
		Symbol:      symbol,
		Performance: 0,
		Source:      FallbackSource,
		Status:      CacheNone,
		Confidence:  0.1,
	}
}

// TimeframeApproximation carries estimates derived from the daily figure.
type TimeframeApproximation struct {
	Daily        float64               `json:"daily"`
	Estimates    map[Timeframe]float64 `json:"estimates"`
	Approximated bool                  `json:"approximated"`
	Method       string                `json:"method"`
}
