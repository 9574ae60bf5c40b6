package service

import (
	"context"

	"SectorPulse/internal/domain/models"
)

// QuoteSource is one upstream quote provider.
type QuoteSource interface {
	Name() models.SourceName
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
}

// StockDataProvider returns a validated observation or nil. It never returns
// an error: absence of data is the nil result.
type StockDataProvider interface {
	Fetch(ctx context.Context, symbol string, mode models.FetchMode) *models.StockObservation
}

// TimeframeSource returns per-timeframe percentage moves for one symbol.
type TimeframeSource interface {
	TimeframeChanges(ctx context.Context, symbol string) (models.TimeframeChanges, error)
}
