package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"SectorPulse/internal/domain/models"
	drepo "SectorPulse/internal/domain/repository"
	domsvc "SectorPulse/internal/domain/service"
	"SectorPulse/internal/services/sentiment"
	"SectorPulse/pkg/cache"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/util"
)

// ErrNoBenchmarkSources is returned by Refresh when no source produced a
// plausible benchmark quote.
var ErrNoBenchmarkSources = errors.New("benchmark: no source returned a usable quote")

// benchmarkExpiry keeps a snapshot around long after it stops being fresh so
// it can still be served as stale.
const benchmarkExpiry = 24 * time.Hour

// BenchmarkConfig holds the reference instrument and its sanity rules.
type BenchmarkConfig struct {
	Symbol      string
	MinPrice    float64
	MaxPrice    float64
	MaxChange   float64
	ThinVolume  int64
	MarketTTL   time.Duration
	AfterTTL    time.Duration
	WeekendTTL  time.Duration
	Location    *time.Location
	Multipliers sentiment.TimeframeMultipliers
}

// BenchmarkReader is what the aggregator needs from the benchmark service.
type BenchmarkReader interface {
	Get(ctx context.Context) models.BenchmarkSnapshot
}

// BenchmarkService serves the small-cap reference performance with
// cached -> fresh -> stale -> neutral degradation. Get never fails.
type BenchmarkService struct {
	provider domsvc.StockDataProvider
	cache    cache.Service
	cfg      BenchmarkConfig
	sources  []models.FetchMode
	metrics  drepo.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewBenchmarkService validates cfg and builds the service. Out-of-band
// timeframe multipliers are rejected here so startup fails.
func NewBenchmarkService(provider domsvc.StockDataProvider, c cache.Service, cfg BenchmarkConfig, metrics drepo.Metrics, log *logger.Logger) (*BenchmarkService, error) {
	if err := cfg.Multipliers.Validate(); err != nil {
		return nil, fmt.Errorf("benchmark multipliers: %w", err)
	}
	if cfg.Symbol == "" {
		return nil, errors.New("benchmark symbol is required")
	}
	if cfg.MinPrice >= cfg.MaxPrice {
		return nil, fmt.Errorf("benchmark price band [%v, %v] is empty", cfg.MinPrice, cfg.MaxPrice)
	}
	if cfg.Location == nil {
		cfg.Location = util.NewYork()
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BenchmarkService{
		provider: provider,
		cache:    c,
		cfg:      cfg,
		sources:  []models.FetchMode{models.FetchSourceA, models.FetchSourceB},
		metrics:  metrics,
		log:      log.Component("benchmark"),
		now:      time.Now,
	}, nil
}

func (s *BenchmarkService) cacheKey() string {
	return cache.GenerateKey("benchmark", s.cfg.Symbol)
}

// TTL is how long a snapshot counts as fresh at t.
func (s *BenchmarkService) TTL(t time.Time) time.Duration {
	switch util.SessionAt(t, s.cfg.Location) {
	case util.SessionRegular:
		return s.cfg.MarketTTL
	case util.SessionWeekend:
		return s.cfg.WeekendTTL
	default:
		return s.cfg.AfterTTL
	}
}

// Get returns the benchmark snapshot tagged with where it came from.
func (s *BenchmarkService) Get(ctx context.Context) models.BenchmarkSnapshot {
	now := s.now()

	var cached models.BenchmarkSnapshot
	hasCached := false
	if s.cache != nil {
		if err := s.cache.Get(ctx, s.cacheKey(), &cached); err == nil {
			hasCached = true
			if now.Sub(cached.CachedAt) < s.TTL(now) {
				cached.Status = models.CacheCached
				s.metrics.RecordBenchmark(string(cached.Status), cached.Performance)
				return cached
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("benchmark cache read failed", logger.Error(err))
		}
	}

	fresh, err := s.Refresh(ctx)
	if err == nil {
		s.metrics.RecordBenchmark(string(fresh.Status), fresh.Performance)
		return fresh
	}
	s.log.Warn("benchmark refresh failed", logger.Error(err), logger.Bool("has_cached", hasCached))

	if hasCached {
		cached.Status = models.CacheStale
		cached.Confidence = sentiment.Round3(cached.Confidence * 0.5)
		s.metrics.RecordBenchmark(string(cached.Status), cached.Performance)
		return cached
	}

	s.log.Error("serving neutral benchmark", logger.String("symbol", s.cfg.Symbol))
	s.metrics.RecordError("benchmark_fallback")
	n := models.NeutralBenchmark(s.cfg.Symbol)
	s.metrics.RecordBenchmark(string(n.Status), n.Performance)
	return n
}

// Refresh fetches the benchmark from the ordered sources and caches the first
// plausible quote.
func (s *BenchmarkService) Refresh(ctx context.Context) (models.BenchmarkSnapshot, error) {
	for _, mode := range s.sources {
		obs := s.provider.Fetch(ctx, s.cfg.Symbol, mode)
		if obs == nil {
			continue
		}
		snap, ok := s.snapshot(obs)
		if !ok {
			s.log.Warn("benchmark quote rejected",
				logger.String("source", string(obs.Source)),
				logger.Float64("price", obs.Price),
				logger.Float64("previous_close", obs.PreviousClose),
			)
			continue
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, s.cacheKey(), snap, benchmarkExpiry); err != nil {
				s.log.Warn("benchmark cache write failed", logger.Error(err))
			}
		}
		return snap, nil
	}
	return models.BenchmarkSnapshot{}, ErrNoBenchmarkSources
}

func (s *BenchmarkService) snapshot(o *models.StockObservation) (models.BenchmarkSnapshot, bool) {
	inBand := func(p float64) bool { return p >= s.cfg.MinPrice && p <= s.cfg.MaxPrice }
	if !inBand(o.Price) || !inBand(o.PreviousClose) {
		return models.BenchmarkSnapshot{}, false
	}
	change := o.ChangePercent()
	if math.Abs(change) > s.cfg.MaxChange {
		return models.BenchmarkSnapshot{}, false
	}
	perf := sentiment.Round3(change)
	return models.BenchmarkSnapshot{
		Symbol:        s.cfg.Symbol,
		Performance:   perf,
		CurrentPrice:  o.Price,
		PreviousClose: o.PreviousClose,
		Volume:        o.Volume,
		Source:        string(o.Source),
		Status:        models.CacheFresh,
		Confidence:    s.confidence(o.Volume, perf),
		CachedAt:      s.now().UTC(),
	}, true
}

// confidence starts at 1.0 and drops for thin volume and large swings.
func (s *BenchmarkService) confidence(volume int64, perf float64) float64 {
	c := 1.0
	if volume < s.cfg.ThinVolume {
		c -= 0.2
	}
	if math.Abs(perf) > 3 {
		c -= 0.15
	}
	if math.Abs(perf) > 5 {
		c -= 0.15
	}
	return sentiment.Round3(c)
}

// Approximations returns the snapshot plus timeframe estimates derived from it.
func (s *BenchmarkService) Approximations(ctx context.Context) (models.BenchmarkSnapshot, models.TimeframeApproximation) {
	snap := s.Get(ctx)
	return snap, s.cfg.Multipliers.Approximate(snap.Performance)
}
