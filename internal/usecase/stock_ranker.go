package usecase

import (
	"context"
	"fmt"
	"time"

	"SectorPulse/internal/domain/models"
	drepo "SectorPulse/internal/domain/repository"
	domsvc "SectorPulse/internal/domain/service"
	"SectorPulse/internal/services/sentiment"
	"SectorPulse/pkg/logger"
)

// DefaultTopN is how many names each side of a ranking keeps.
const DefaultTopN = 3

// SectorScorer supplies the sector lean the alignment component needs.
type SectorScorer interface {
	Latest(ctx context.Context, sector string) (*models.SectorSentimentResult, bool, error)
}

// StockRanker picks the strongest movers on each side of a sector.
type StockRanker struct {
	universe drepo.UniverseStore
	provider domsvc.StockDataProvider
	scorer   SectorScorer
	log      *logger.Logger
	now      func() time.Time
}

// NewStockRanker wires the ranker.
func NewStockRanker(universe drepo.UniverseStore, provider domsvc.StockDataProvider, scorer SectorScorer, log *logger.Logger) *StockRanker {
	if log == nil {
		log = logger.Nop()
	}
	return &StockRanker{
		universe: universe,
		provider: provider,
		scorer:   scorer,
		log:      log.Component("ranker"),
		now:      time.Now,
	}
}

// Rank returns the top n bullish and bearish stocks of sector.
func (r *StockRanker) Rank(ctx context.Context, sector string, n int) (*models.SectorRanking, error) {
	if n <= 0 {
		n = DefaultTopN
	}

	stocks, err := r.universe.Stocks(ctx, sector)
	if err != nil {
		return nil, fmt.Errorf("stocks for %s: %w", sector, err)
	}

	var sectorScore float64
	if r.scorer != nil {
		res, _, err := r.scorer.Latest(ctx, sector)
		if err != nil {
			r.log.Warn("sector score unavailable, alignment treated as neutral",
				logger.String("sector", sector), logger.Error(err))
		} else if res != nil {
			sectorScore = res.SentimentScore
		}
	}

	inputs := make([]models.RankInput, 0, len(stocks))
	for _, s := range stocks {
		if !s.IsActive {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o := r.provider.Fetch(ctx, s.Symbol, models.FetchAuto)
		if o == nil || !o.Valid() {
			continue
		}
		mcap := o.MarketCap
		if mcap <= 0 {
			mcap = s.MarketCap
		}
		inputs = append(inputs, models.RankInput{
			Symbol:        s.Symbol,
			ChangePercent: o.ChangePercent(),
			Price:         o.Price,
			Volume:        o.Volume,
			AvgVolume:     o.AvgVolume,
			FloatShares:   s.FloatShares,
			MarketCap:     mcap,
		})
	}

	ranking := sentiment.Rank(sector, inputs, sectorScore, n, r.now().UTC())
	r.log.Debug("sector ranked",
		logger.String("sector", sector),
		logger.Int("evaluated", ranking.Evaluated),
		logger.Int("bullish", len(ranking.Bullish)),
		logger.Int("bearish", len(ranking.Bearish)),
	)
	return &ranking, nil
}
