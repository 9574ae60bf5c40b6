package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/services/sentiment"
	"SectorPulse/pkg/cache"
)

var nyc = time.FixedZone("NY", -4*60*60)

func benchCfg() BenchmarkConfig {
	return BenchmarkConfig{
		Symbol: "IWM", MinPrice: 50, MaxPrice: 500, MaxChange: 20, ThinVolume: 5_000_000,
		MarketTTL: 5 * time.Minute, AfterTTL: 60 * time.Minute, WeekendTTL: 120 * time.Minute,
		Location: nyc, Multipliers: sentiment.DefaultTimeframeMultipliers,
	}
}

func newBench(t *testing.T, p *fakeProvider, c cache.Service, clock *fakeClock) *BenchmarkService {
	t.Helper()
	s, err := NewBenchmarkService(p, c, benchCfg(), nil, nil)
	require.NoError(t, err)
	s.now = clock.Now
	return s
}

func iwm(prev, price float64, vol int64) map[string]models.StockObservation {
	return map[string]models.StockObservation{
		"IWM": {Symbol: "IWM", PreviousClose: prev, Price: price, Volume: vol, AvgVolume: vol},
	}
}

// Wednesday 10:00 New York, inside regular hours.
func marketOpen() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 12, 10, 0, 0, 0, nyc)}
}

func TestBenchmark_FreshThenCached(t *testing.T) {
	clock := marketOpen()
	mc := cache.NewMemoryCache(cache.WithMemoryClock(clock.Now))
	defer mc.Close()
	p := &fakeProvider{quotes: iwm(200, 202, 10_000_000)}
	s := newBench(t, p, mc, clock)

	first := s.Get(context.Background())
	assert.Equal(t, models.CacheFresh, first.Status)
	assert.Equal(t, 1.0, first.Performance)
	assert.Equal(t, 1.0, first.Confidence)
	assert.Equal(t, string(models.SourceA), first.Source)
	calls := p.calls

	clock.Advance(4 * time.Minute)
	second := s.Get(context.Background())
	assert.Equal(t, models.CacheCached, second.Status)
	assert.Equal(t, 1.0, second.Performance)
	assert.Equal(t, calls, p.calls)
}

func TestBenchmark_StaleServedAtHalfConfidence(t *testing.T) {
	clock := marketOpen()
	mc := cache.NewMemoryCache(cache.WithMemoryClock(clock.Now))
	defer mc.Close()
	p := &fakeProvider{quotes: iwm(200, 202, 10_000_000)}
	s := newBench(t, p, mc, clock)
	require.Equal(t, models.CacheFresh, s.Get(context.Background()).Status)

	clock.Advance(6 * time.Minute)
	p.down = map[models.FetchMode]bool{models.FetchSourceA: true, models.FetchSourceB: true}

	got := s.Get(context.Background())
	assert.Equal(t, models.CacheStale, got.Status)
	assert.Equal(t, 1.0, got.Performance)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestBenchmark_NeutralFallbackWithoutCache(t *testing.T) {
	p := &fakeProvider{down: map[models.FetchMode]bool{models.FetchSourceA: true, models.FetchSourceB: true}}
	s := newBench(t, p, cache.NewMemoryCache(), marketOpen())

	got := s.Get(context.Background())
	assert.Equal(t, 0.0, got.Performance)
	assert.Equal(t, 0.1, got.Confidence)
	assert.Equal(t, models.FallbackSource, got.Source)
	assert.Equal(t, models.CacheNone, got.Status)

	_, err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoBenchmarkSources)
}

func TestBenchmark_FallsBackToSecondSource(t *testing.T) {
	p := &fakeProvider{quotes: iwm(200, 201, 10_000_000), down: map[models.FetchMode]bool{models.FetchSourceA: true}}
	s := newBench(t, p, nil, marketOpen())

	got := s.Get(context.Background())
	assert.Equal(t, models.CacheFresh, got.Status)
	assert.Equal(t, string(models.SourceB), got.Source)
	assert.Equal(t, 0.5, got.Performance)
}

func TestBenchmark_RejectsImplausibleQuotes(t *testing.T) {
	cases := map[string]map[string]models.StockObservation{
		"price below band": iwm(30, 31, 10_000_000),
		"price above band": iwm(600, 601, 10_000_000),
		"swing over 20%":   iwm(100, 125, 10_000_000),
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			s := newBench(t, &fakeProvider{quotes: q}, nil, marketOpen())
			_, err := s.Refresh(context.Background())
			assert.ErrorIs(t, err, ErrNoBenchmarkSources)
			assert.Equal(t, models.FallbackSource, s.Get(context.Background()).Source)
		})
	}
}

func TestBenchmark_Confidence(t *testing.T) {
	s := newBench(t, &fakeProvider{}, nil, marketOpen())
	assert.Equal(t, 1.0, s.confidence(10_000_000, 1.0))
	assert.Equal(t, 0.8, s.confidence(1_000_000, 1.0))
	assert.Equal(t, 0.65, s.confidence(1_000_000, -4.0))
	assert.Equal(t, 0.7, s.confidence(10_000_000, 6.0))
	assert.Equal(t, 0.5, s.confidence(0, 6.0))
}

func TestBenchmark_TTLBySession(t *testing.T) {
	s := newBench(t, &fakeProvider{}, nil, marketOpen())
	assert.Equal(t, 5*time.Minute, s.TTL(time.Date(2024, 6, 12, 10, 0, 0, 0, nyc)))
	assert.Equal(t, 60*time.Minute, s.TTL(time.Date(2024, 6, 12, 20, 0, 0, 0, nyc)))
	assert.Equal(t, 120*time.Minute, s.TTL(time.Date(2024, 6, 15, 12, 0, 0, 0, nyc)))
}

func TestBenchmark_Approximations(t *testing.T) {
	s := newBench(t, &fakeProvider{quotes: iwm(200, 204, 10_000_000)}, nil, marketOpen())
	snap, approx := s.Approximations(context.Background())
	assert.Equal(t, 2.0, snap.Performance)
	assert.True(t, approx.Approximated)
	assert.Equal(t, 8.0, approx.Estimates[models.TF1Week])
}

func TestNewBenchmarkService_FailsFastOnBadMultipliers(t *testing.T) {
	cfg := benchCfg()
	cfg.Multipliers.Week1 = 9
	_, err := NewBenchmarkService(&fakeProvider{}, nil, cfg, nil, nil)
	assert.Error(t, err)

	cfg = benchCfg()
	cfg.MinPrice = 600
	_, err = NewBenchmarkService(&fakeProvider{}, nil, cfg, nil, nil)
	assert.Error(t, err)
}
