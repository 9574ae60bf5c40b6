package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/domain/service"
	"SectorPulse/internal/service/quotes"
	"SectorPulse/internal/services/sentiment"
	"SectorPulse/pkg/cache"
)

type aggFixture struct {
	universe *fakeUniverse
	provider *fakeProvider
	bench    *fixedBench
	store    *recordingStore
	sink     *recordingSink
	cache    *cache.MemoryCache
	agg      *SectorAggregator
}

func newAggFixture(t *testing.T, benchPerf float64) *aggFixture {
	t.Helper()
	engine, err := sentiment.NewEngine(nil)
	require.NoError(t, err)
	f := &aggFixture{
		universe: &fakeUniverse{stocks: map[string][]models.UniverseStock{}},
		provider: &fakeProvider{quotes: map[string]models.StockObservation{}},
		bench:    &fixedBench{snap: models.BenchmarkSnapshot{Symbol: "IWM", Performance: benchPerf, Status: models.CacheFresh, Confidence: 1}},
		store:    &recordingStore{},
		sink:     &recordingSink{},
		cache:    cache.NewMemoryCache(),
	}
	t.Cleanup(func() { _ = f.cache.Close() })
	f.agg = NewSectorAggregator(f.universe, f.provider, f.bench, engine, sentiment.DefaultTimeframeMultipliers,
		AggregatorConfig{SectorWorkers: 2, ResultTTL: time.Minute},
		WithSentimentStore(f.store), WithResultCache(f.cache), WithResultSink(f.sink),
	)
	return f
}

func (f *aggFixture) add(sector string, obs ...models.StockObservation) {
	for _, o := range obs {
		f.universe.stocks[sector] = append(f.universe.stocks[sector], active(sector, o.Symbol)...)
		f.provider.quotes[o.Symbol] = o
	}
}

func TestAggregate_ScenarioA(t *testing.T) {
	f := newAggFixture(t, 1.0)
	f.add("industrials", quote("AAA", 100, 105), quote("BBB", 100, 103))

	r, err := f.agg.Aggregate(context.Background(), "industrials")
	require.NoError(t, err)
	assert.Equal(t, "industrials", r.Sector)
	assert.InDelta(t, 4.0, r.SectorPerformance, 1e-9)
	assert.Equal(t, 1.0, r.BenchmarkPerformance)
	assert.Equal(t, 3.0, r.Alpha)
	assert.Equal(t, 0.3, r.SentimentScore)
	assert.Equal(t, models.LightGreen, r.Color)
	assert.Equal(t, models.SignalAvoidShorts, r.Signal)
	assert.Equal(t, models.StrongOutperform, r.RelativeStrength)
	assert.Equal(t, 2, r.StockCount)
	assert.Equal(t, 1.0, r.DataCoverage)
	// 0.4*min(2/5,1) + 0.4*1 + 0.2*1
	assert.Equal(t, 0.76, r.Confidence)
	assert.True(t, r.Quality.HasFlag(models.FlagLowStockCount))
	assert.True(t, r.TimeframesApproximated)
	assert.Equal(t, 0.3, r.TimeframeScores[models.TF1Day])
	assert.Equal(t, models.CacheFresh, r.BenchmarkStatus)

	assert.Len(t, f.store.stored, 1)
	assert.Equal(t, []string{"industrials"}, f.sink.seen)
}

func TestAggregate_ScenarioB_EmptyUniverse(t *testing.T) {
	f := newAggFixture(t, 1.0)

	r, err := f.agg.Aggregate(context.Background(), "utilities")
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.SentimentScore)
	assert.Equal(t, 0, r.StockCount)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Equal(t, models.BlueNeutral, r.Color)
	assert.Equal(t, models.SignalNeutral, r.Signal)
	assert.True(t, r.Quality.HasFlag(models.FlagInsufficientStocks))
	assert.Equal(t, 0, f.bench.calls)
}

func TestAggregate_AllQuotesFailIsNeutral(t *testing.T) {
	f := newAggFixture(t, 1.0)
	f.add("energy", quote("AAA", 100, 105))
	f.provider.down = map[models.FetchMode]bool{models.FetchAuto: true}

	r, err := f.agg.Aggregate(context.Background(), "energy")
	require.NoError(t, err)
	assert.Equal(t, models.BlueNeutral, r.Color)
	assert.Equal(t, 0.0, r.Confidence)
	assert.True(t, r.Quality.HasFlag(models.FlagLowDataCoverage))
}

func TestAggregate_ScenarioC_ExtremeAlphaCompressed(t *testing.T) {
	f := newAggFixture(t, 1.0)
	f.add("industrials", quote("MOON", 100, 126))

	r, err := f.agg.Aggregate(context.Background(), "industrials")
	require.NoError(t, err)
	assert.Equal(t, 25.0, r.Alpha)
	assert.Greater(t, r.SentimentScore, 0.8)
	assert.Less(t, r.SentimentScore, 1.0)
	assert.Equal(t, models.DarkGreen, r.Color)
	assert.Equal(t, models.SignalDoNotShort, r.Signal)
}

func TestAggregate_ScenarioD_NeutralBenchmarkStillCompletes(t *testing.T) {
	f := newAggFixture(t, 0)
	f.bench.snap = models.NeutralBenchmark("IWM")
	f.add("industrials", quote("AAA", 100, 98))

	r, err := f.agg.Aggregate(context.Background(), "industrials")
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.BenchmarkPerformance)
	assert.Equal(t, models.CacheNone, r.BenchmarkStatus)
	assert.Equal(t, -2.0, r.Alpha)
	assert.Equal(t, models.LightRed, r.Color)
	assert.Equal(t, models.SignalGoodShorting, r.Signal)
}

func TestAggregate_PersistAndPublishFailuresAreSwallowed(t *testing.T) {
	f := newAggFixture(t, 0)
	f.store.err = errors.New("clickhouse down")
	f.sink.err = errors.New("kafka down")
	f.add("energy", quote("AAA", 100, 101))

	r, err := f.agg.Aggregate(context.Background(), "energy")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Len(t, f.store.stored, 1)
}

func TestAggregate_UniverseErrorDegradesToNeutral(t *testing.T) {
	f := newAggFixture(t, 0)
	f.universe.err = errors.New("postgres down")

	r, err := f.agg.Aggregate(context.Background(), "energy")
	require.NoError(t, err)
	assert.Equal(t, "energy", r.Sector)
	assert.Equal(t, models.BlueNeutral, r.Color)
	assert.Equal(t, models.SignalNeutral, r.Signal)
	assert.Equal(t, 0.0, r.Confidence)
	assert.True(t, r.Quality.HasFlag(models.FlagInsufficientStocks))
	assert.Empty(t, f.store.stored)
	assert.Empty(t, f.sink.seen)

	report := f.agg.AggregateSectors(context.Background(), []string{"energy"})
	assert.Empty(t, report.Results)
	assert.Contains(t, report.Failed["energy"], ErrUniverseUnavailable.Error())
}

func TestAggregate_CanceledContextIsReturned(t *testing.T) {
	f := newAggFixture(t, 0)
	f.universe.err = errors.New("postgres down")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.agg.Aggregate(ctx, "energy")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregate_TimedOutSymbolIsExcluded(t *testing.T) {
	engine, err := sentiment.NewEngine(nil)
	require.NoError(t, err)
	universe := &fakeUniverse{stocks: map[string][]models.UniverseStock{
		"industrials": active("industrials", "AAA", "BBB", "CCC", "HANG"),
	}}
	src := &stallingSource{stall: "HANG"}
	adapter := quotes.NewAdapter([]service.QuoteSource{src}, quotes.WithCallTimeout(20*time.Millisecond))
	agg := NewSectorAggregator(universe, adapter, &fixedBench{snap: models.BenchmarkSnapshot{Performance: 1, Status: models.CacheFresh}},
		engine, sentiment.DefaultTimeframeMultipliers, AggregatorConfig{Mode: models.FetchSourceA})

	start := time.Now()
	r, err := agg.Aggregate(context.Background(), "industrials")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 3, r.StockCount)
	assert.Equal(t, 0.75, r.DataCoverage)
	assert.Greater(t, r.SentimentScore, 0.0)
	assert.Equal(t, 3, r.Quality.APISuccessCount)
}

func TestAggregate_Deterministic(t *testing.T) {
	f := newAggFixture(t, 0.4)
	f.add("technology",
		models.StockObservation{Symbol: "A", PreviousClose: 10, Price: 10.7, Volume: 3000, AvgVolume: 1000},
		models.StockObservation{Symbol: "B", PreviousClose: 22, Price: 21.1, Volume: 100, AvgVolume: 400},
		models.StockObservation{Symbol: "C", PreviousClose: 5, Price: 5.25},
	)
	first, err := f.agg.Aggregate(context.Background(), "technology")
	require.NoError(t, err)
	second, err := f.agg.Aggregate(context.Background(), "technology")
	require.NoError(t, err)

	assert.Equal(t, first.SentimentScore, second.SentimentScore)
	assert.Equal(t, first.SectorPerformance, second.SectorPerformance)
	assert.Equal(t, first.Color, second.Color)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestLatest_UsesCacheAfterAggregate(t *testing.T) {
	f := newAggFixture(t, 1.0)
	f.add("industrials", quote("AAA", 100, 105))

	r, hit, err := f.agg.Latest(context.Background(), "industrials")
	require.NoError(t, err)
	assert.False(t, hit)
	calls := f.provider.calls

	cached, hit, err := f.agg.Latest(context.Background(), "industrials")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, r.SentimentScore, cached.SentimentScore)
	assert.Equal(t, calls, f.provider.calls)

	all, err := f.agg.Cached(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "industrials", all[0].Sector)
}

func TestAggregateAll_IsolatesPanicsAndFailures(t *testing.T) {
	f := newAggFixture(t, 0)
	f.add("energy", quote("OIL", 100, 102))
	f.add("technology", quote("BOOM", 100, 101))
	f.add("utilities", quote("PWR", 100, 99))
	f.provider.panicOn = "BOOM"

	report, err := f.agg.AggregateAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Results, 2)
	assert.Contains(t, report.Results, "energy")
	assert.Contains(t, report.Results, "utilities")
	require.Contains(t, report.Failed, "technology")
	assert.Contains(t, report.Failed["technology"], "panic")
}

func TestAggregateSectors_Deduplicates(t *testing.T) {
	f := newAggFixture(t, 0)
	f.add("real_estate", quote("REIT", 100, 100.5))

	report := f.agg.AggregateSectors(context.Background(), []string{"real_estate", "", "real_estate"})
	assert.Len(t, report.Results, 1)
	assert.Empty(t, report.Failed)
	assert.Len(t, f.store.stored, 1)
}
