package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SectorPulse/internal/domain/models"
	drepo "SectorPulse/internal/domain/repository"
	domsvc "SectorPulse/internal/domain/service"
	"SectorPulse/internal/services/sentiment"
	"SectorPulse/pkg/cache"
	"SectorPulse/pkg/logger"
)

// multiKey tags the blended multi-timeframe entry in the cache.
const multiKey = "multi"

// TimeframeCalculator scores a sector on real per-timeframe bars and blends
// the horizons into one reading.
type TimeframeCalculator struct {
	universe drepo.UniverseStore
	source   domsvc.TimeframeSource
	engine   *sentiment.Engine
	blender  *sentiment.Blender
	cache    cache.Service
	ttl      time.Duration
	metrics  drepo.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewTimeframeCalculator wires the calculator. c may be nil.
func NewTimeframeCalculator(
	universe drepo.UniverseStore,
	source domsvc.TimeframeSource,
	engine *sentiment.Engine,
	blender *sentiment.Blender,
	c cache.Service,
	ttl time.Duration,
	metrics drepo.Metrics,
	log *logger.Logger,
) *TimeframeCalculator {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TimeframeCalculator{
		universe: universe,
		source:   source,
		engine:   engine,
		blender:  blender,
		cache:    c,
		ttl:      ttl,
		metrics:  metrics,
		log:      log.Component("timeframes"),
		now:      time.Now,
	}
}

// Calculate returns the blended multi-timeframe sentiment for sector.
// Cached readings younger than ttl are reused unless refresh is set.
func (t *TimeframeCalculator) Calculate(ctx context.Context, sector string, refresh bool) (*models.TimeframeSentiment, error) {
	key := cache.GenerateKeyWithParams("sector", sector, multiKey)
	if t.cache != nil && !refresh {
		var cached models.TimeframeSentiment
		err := t.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			t.log.Warn("cache read failed", logger.Error(err))
		}
	}

	start := t.now()
	mapping, err := t.universe.ActiveSymbols(ctx, sector)
	if err != nil {
		return nil, fmt.Errorf("active symbols for %s: %w", sector, err)
	}

	rows := make([]models.TimeframeChanges, 0, len(mapping.Symbols))
	for _, symbol := range mapping.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tc, err := t.source.TimeframeChanges(ctx, symbol)
		if err != nil {
			t.metrics.RecordFetch("timeframes", "error")
			t.log.Debug("timeframe changes unavailable", logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		t.metrics.RecordFetch("timeframes", "ok")
		rows = append(rows, tc)
	}

	perf, used := t.engine.TimeframePerformance(sector, rows)
	scores := make(map[models.Timeframe]float64, len(perf))
	for tf, move := range perf {
		scores[tf] = sentiment.Classify(move).Score
	}

	out := &models.TimeframeSentiment{
		Sector:        sector,
		Timestamp:     start.UTC(),
		Scores:        scores,
		Performance:   perf,
		StockCount:    used,
		UniverseCount: len(mapping.Symbols),
	}
	if used == 0 || len(scores) == 0 {
		out.Color = models.BlueNeutral
		out.Signal = sentiment.SignalFor(models.BlueNeutral)
	} else {
		cls := sentiment.ClassifyScore(t.blender.Blend(scores))
		out.BlendedScore = cls.Score
		out.Color = cls.Color
		out.Signal = cls.Signal
		out.Confidence = sentiment.BlendConfidence(scores, used)
	}

	if t.cache != nil && t.ttl > 0 {
		if err := t.cache.Set(ctx, key, out, t.ttl); err != nil {
			t.log.Warn("cache write failed", logger.Error(err))
		}
	}
	t.metrics.RecordLatency("timeframes", t.now().Sub(start).Seconds())
	return out, nil
}
