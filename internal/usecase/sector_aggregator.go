package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"SectorPulse/internal/domain/models"
	drepo "SectorPulse/internal/domain/repository"
	domsvc "SectorPulse/internal/domain/service"
	"SectorPulse/internal/services/sentiment"
	"SectorPulse/pkg/cache"
	"SectorPulse/pkg/logger"
)

// AggregatorConfig tunes the orchestrator.
type AggregatorConfig struct {
	SectorWorkers     int
	SuccessRatioAlert float64
	ResultTTL         time.Duration
	Mode              models.FetchMode
}

// SectorResultKey is the cache key of a sector's latest result.
func SectorResultKey(sector string, tf models.Timeframe) string {
	return cache.GenerateKeyWithParams("sector", sector, tf)
}

// SectorAggregator turns a sector's universe into one sentiment result.
type SectorAggregator struct {
	universe    drepo.UniverseStore
	provider    domsvc.StockDataProvider
	bench       BenchmarkReader
	engine      *sentiment.Engine
	multipliers sentiment.TimeframeMultipliers
	store       drepo.SentimentStore
	cache       cache.Service
	sink        drepo.ResultPublisher
	metrics     drepo.Metrics
	log         *logger.Logger
	cfg         AggregatorConfig
	now         func() time.Time
}

// AggregatorOption configures optional collaborators.
type AggregatorOption func(*SectorAggregator)

// WithSentimentStore persists every result.
func WithSentimentStore(s drepo.SentimentStore) AggregatorOption {
	return func(a *SectorAggregator) { a.store = s }
}

// WithResultCache caches every result for cfg.ResultTTL.
func WithResultCache(c cache.Service) AggregatorOption {
	return func(a *SectorAggregator) { a.cache = c }
}

// WithResultSink hands every result downstream.
func WithResultSink(p drepo.ResultPublisher) AggregatorOption {
	return func(a *SectorAggregator) { a.sink = p }
}

// WithAggregatorMetrics records sentiment gauges and latency.
func WithAggregatorMetrics(m drepo.Metrics) AggregatorOption {
	return func(a *SectorAggregator) { a.metrics = m }
}

// WithAggregatorLogger sets the logger.
func WithAggregatorLogger(l *logger.Logger) AggregatorOption {
	return func(a *SectorAggregator) { a.log = l.Component("aggregator") }
}

// NewSectorAggregator wires the orchestrator.
func NewSectorAggregator(
	universe drepo.UniverseStore,
	provider domsvc.StockDataProvider,
	bench BenchmarkReader,
	engine *sentiment.Engine,
	multipliers sentiment.TimeframeMultipliers,
	cfg AggregatorConfig,
	opts ...AggregatorOption,
) *SectorAggregator {
	if cfg.SectorWorkers < 1 {
		cfg.SectorWorkers = 1
	}
	if cfg.SuccessRatioAlert == 0 {
		cfg.SuccessRatioAlert = 0.95
	}
	if cfg.Mode == "" {
		cfg.Mode = models.FetchAuto
	}
	a := &SectorAggregator{
		universe:    universe,
		provider:    provider,
		bench:       bench,
		engine:      engine,
		multipliers: multipliers,
		metrics:     drepo.NopMetrics{},
		log:         logger.Nop(),
		cfg:         cfg,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ErrUniverseUnavailable marks a failed universe lookup.
var ErrUniverseUnavailable = errors.New("universe unavailable")

// Aggregate computes the daily sentiment for one sector. sector must already
// be normalized. A failed universe lookup or missing market data degrades
// into a neutral result; only context cancellation is returned as an error.
func (a *SectorAggregator) Aggregate(ctx context.Context, sector string) (*models.SectorSentimentResult, error) {
	start := a.now()
	r, err := a.aggregate(ctx, sector)
	if errors.Is(err, ErrUniverseUnavailable) {
		// not delivered: a store outage must not overwrite the last good result
		r = neutralResult(sector, start, sentiment.AssessQuality(sentiment.QualityInput{Sector: sector}))
		r.CalculationTime = a.now().Sub(start)
		return r, nil
	}
	return r, err
}

func (a *SectorAggregator) aggregate(ctx context.Context, sector string) (*models.SectorSentimentResult, error) {
	start := a.now()
	log := a.log.With(logger.String("sector", sector))

	mapping, err := a.universe.ActiveSymbols(ctx, sector)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.metrics.RecordError("universe")
		log.Error("universe lookup failed", logger.Error(err))
		return nil, fmt.Errorf("active symbols for %s: %w: %v", sector, ErrUniverseUnavailable, err)
	}

	observations := make([]models.StockObservation, 0, len(mapping.Symbols))
	for _, symbol := range mapping.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o := a.provider.Fetch(ctx, symbol, a.cfg.Mode); o != nil {
			o.Sector = sector
			observations = append(observations, *o)
		}
	}

	requested := len(mapping.Symbols)
	if requested > 0 {
		ratio := float64(len(observations)) / float64(requested)
		if ratio < a.cfg.SuccessRatioAlert {
			log.Error("quote success ratio below threshold",
				logger.Int("requested", requested),
				logger.Int("succeeded", len(observations)),
				logger.Float64("ratio", ratio),
			)
		}
	}

	perf, meta := a.engine.Performance(sector, observations, requested)
	quality := sentiment.AssessQuality(sentiment.QualityInput{
		Sector:         sector,
		TotalStocks:    mapping.TotalCount,
		Requested:      requested,
		Succeeded:      len(observations),
		ValidStocks:    meta.ValidStocks,
		EngineCoverage: meta.DataCoverage,
	})

	var result *models.SectorSentimentResult
	if meta.ValidStocks == 0 {
		log.Warn("no valid observations, emitting neutral result", logger.Int("universe", requested))
		result = neutralResult(sector, start, quality)
	} else {
		bench := a.bench.Get(ctx)
		alpha := sentiment.Alpha(perf, bench.Performance)
		cls := sentiment.Classify(alpha)
		result = &models.SectorSentimentResult{
			Sector:                 sector,
			Timeframe:              models.TF1Day,
			Timestamp:              start.UTC(),
			SentimentScore:         cls.Score,
			SectorPerformance:      perf,
			BenchmarkPerformance:   bench.Performance,
			Alpha:                  alpha,
			Color:                  cls.Color,
			Signal:                 cls.Signal,
			RelativeStrength:       sentiment.ClassifyRelativeStrength(alpha),
			StockCount:             meta.ValidStocks,
			DataCoverage:           meta.DataCoverage,
			Confidence:             quality.Confidence,
			VolatilityMultiplier:   meta.VolatilityMultiplier,
			AvgVolumeWeight:        meta.AvgVolumeWeight,
			TimeframeScores:        a.multipliers.ApproximateScores(alpha),
			TimeframesApproximated: true,
			BenchmarkStatus:        bench.Status,
			Quality:                quality,
		}
	}
	result.CalculationTime = a.now().Sub(start)

	a.deliver(ctx, result, log)

	a.metrics.RecordSentiment(sector, result.SentimentScore, result.Confidence, result.StockCount)
	a.metrics.RecordLatency("aggregate_sector", result.CalculationTime.Seconds())
	log.Info("sector aggregated",
		logger.Float64("score", result.SentimentScore),
		logger.String("color", string(result.Color)),
		logger.Float64("alpha", result.Alpha),
		logger.Int("stocks", result.StockCount),
		logger.Float64("confidence", result.Confidence),
		logger.Duration("took", result.CalculationTime),
	)
	return result, nil
}

// deliver persists, caches and publishes. Every step is best effort.
func (a *SectorAggregator) deliver(ctx context.Context, r *models.SectorSentimentResult, log *logger.Logger) {
	if a.store != nil {
		if err := a.store.StoreSectorSentiment(ctx, r); err != nil {
			a.metrics.RecordError("persist")
			log.Error("persist sector sentiment failed", logger.Error(err))
		}
	}
	if a.cache != nil && a.cfg.ResultTTL > 0 {
		if err := a.cache.Set(ctx, SectorResultKey(r.Sector, r.Timeframe), r, a.cfg.ResultTTL); err != nil {
			a.metrics.RecordError("cache")
			log.Warn("cache sector sentiment failed", logger.Error(err))
		}
	}
	if a.sink != nil {
		if err := a.sink.PublishResult(ctx, r); err != nil {
			a.metrics.RecordError("publish")
			log.Warn("publish sector sentiment failed", logger.Error(err))
		}
	}
}

func neutralResult(sector string, at time.Time, q models.DataQualityAssessment) *models.SectorSentimentResult {
	q.Confidence = 0
	return &models.SectorSentimentResult{
		Sector:           sector,
		Timeframe:        models.TF1Day,
		Timestamp:        at.UTC(),
		Color:            models.BlueNeutral,
		Signal:           sentiment.SignalFor(models.BlueNeutral),
		RelativeStrength: models.NeutralStrength,
		TimeframeScores:  map[models.Timeframe]float64{},
		BenchmarkStatus:  models.CacheNone,
		Quality:          q,
	}
}

// Latest returns the cached result for sector, aggregating on a miss.
func (a *SectorAggregator) Latest(ctx context.Context, sector string) (*models.SectorSentimentResult, bool, error) {
	if a.cache != nil {
		var r models.SectorSentimentResult
		err := a.cache.Get(ctx, SectorResultKey(sector, models.TF1Day), &r)
		if err == nil {
			return &r, true, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			a.log.Warn("cache read failed", logger.String("sector", sector), logger.Error(err))
		}
	}
	r, err := a.Aggregate(ctx, sector)
	return r, false, err
}

// Cached returns every sector result currently in the cache.
func (a *SectorAggregator) Cached(ctx context.Context) ([]*models.SectorSentimentResult, error) {
	sectors, err := a.universe.Sectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	if a.cache == nil || len(sectors) == 0 {
		return []*models.SectorSentimentResult{}, nil
	}
	keys := make([]string, len(sectors))
	for i, s := range sectors {
		keys[i] = SectorResultKey(s, models.TF1Day)
	}
	found, err := cache.MGetTyped[models.SectorSentimentResult](ctx, a.cache, keys...)
	if err != nil {
		return nil, fmt.Errorf("read cached results: %w", err)
	}
	out := make([]*models.SectorSentimentResult, 0, len(found))
	for _, k := range keys {
		if r, ok := found[k]; ok {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

// SweepReport is the outcome of a multi-sector run.
type SweepReport struct {
	Results map[string]*models.SectorSentimentResult `json:"results"`
	Failed  map[string]string                        `json:"failed"`
	Took    time.Duration                            `json:"took_ns"`
}

// AggregateAll runs every sector in the universe.
func (a *SectorAggregator) AggregateAll(ctx context.Context) (*SweepReport, error) {
	sectors, err := a.universe.Sectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	return a.AggregateSectors(ctx, sectors), nil
}

// AggregateSectors runs the given sectors on a bounded worker set. A failure
// or panic in one sector is recorded in the report and does not affect others.
func (a *SectorAggregator) AggregateSectors(ctx context.Context, sectors []string) *SweepReport {
	start := a.now()
	report := &SweepReport{
		Results: make(map[string]*models.SectorSentimentResult, len(sectors)),
		Failed:  map[string]string{},
	}

	uniq := make(map[string]struct{}, len(sectors))
	for _, s := range sectors {
		if s != "" {
			uniq[s] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(uniq))
	for s := range uniq {
		ordered = append(ordered, s)
	}
	sort.Strings(ordered)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, a.cfg.SectorWorkers)
	)
	for _, sector := range ordered {
		wg.Add(1)
		sem <- struct{}{}
		go func(sector string) {
			defer wg.Done()
			defer func() { <-sem }()

			r, err := a.safeAggregate(ctx, sector)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[sector] = err.Error()
				return
			}
			report.Results[sector] = r
		}(sector)
	}
	wg.Wait()

	report.Took = a.now().Sub(start)
	a.metrics.RecordLatency("aggregate_all", report.Took.Seconds())
	a.log.Info("sweep finished",
		logger.Int("sectors", len(ordered)),
		logger.Int("failed", len(report.Failed)),
		logger.Duration("took", report.Took),
	)
	return report
}

func (a *SectorAggregator) safeAggregate(ctx context.Context, sector string) (r *models.SectorSentimentResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			a.metrics.RecordError("panic")
			a.log.Error("sector aggregation panicked",
				logger.String("sector", sector),
				logger.Any("panic", rec),
				logger.String("stack", string(debug.Stack())),
			)
			r, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()
	r, err = a.aggregate(ctx, sector)
	if err != nil {
		a.log.Error("sector aggregation failed", logger.String("sector", sector), logger.Error(err))
	}
	return r, err
}
