package repository

import (
	"context"
	"time"

	"SectorPulse/internal/domain/models"
)

// UniverseStore owns the filtered stock universe. Sector names coming out of
// it are already normalized.
type UniverseStore interface {
	ActiveSymbols(ctx context.Context, sector string) (models.SectorStockMapping, error)
	Sectors(ctx context.Context) ([]string, error)
	Stocks(ctx context.Context, sector string) ([]models.UniverseStock, error)
	UpsertStocks(ctx context.Context, stocks []models.UniverseStock) (int, error)
}

// SentimentStore persists sector results keyed by (sector, timeframe, timestamp).
type SentimentStore interface {
	Init(ctx context.Context) error
	StoreSectorSentiment(ctx context.Context, r *models.SectorSentimentResult) error
	History(ctx context.Context, sector string, tf models.Timeframe, from, to time.Time, limit int) ([]*models.SectorSentimentResult, error)
	Health(ctx context.Context) error
	Close() error
}

// ResultPublisher ships finished results to downstream consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, r *models.SectorSentimentResult) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, outcome string)
	RecordError(kind string)
	RecordSentiment(sector string, score, confidence float64, stocks int)
	RecordBenchmark(status string, performance float64)
	RecordPublish(sink, outcome string)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, string)                    {}
func (NopMetrics) RecordError(string)                            {}
func (NopMetrics) RecordSentiment(string, float64, float64, int) {}
func (NopMetrics) RecordBenchmark(string, float64)               {}
func (NopMetrics) RecordPublish(string, string)                  {}
func (NopMetrics) RecordLatency(string, float64)                 {}
