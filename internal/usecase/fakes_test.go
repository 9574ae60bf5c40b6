package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"SectorPulse/internal/domain/models"
)

type fakeUniverse struct {
	stocks map[string][]models.UniverseStock
	err    error
}

func (f *fakeUniverse) ActiveSymbols(_ context.Context, sector string) (models.SectorStockMapping, error) {
	if f.err != nil {
		return models.SectorStockMapping{}, f.err
	}
	m := models.SectorStockMapping{Sector: sector, Symbols: []string{}}
	for _, s := range f.stocks[sector] {
		m.TotalCount++
		if s.IsActive {
			m.ActiveCount++
			m.Symbols = append(m.Symbols, s.Symbol)
		}
	}
	return m, nil
}

func (f *fakeUniverse) Sectors(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0, len(f.stocks))
	for s := range f.stocks {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeUniverse) Stocks(_ context.Context, sector string) ([]models.UniverseStock, error) {
	return f.stocks[sector], f.err
}

func (f *fakeUniverse) UpsertStocks(context.Context, []models.UniverseStock) (int, error) {
	return 0, errors.New("read only")
}

func active(sector string, symbols ...string) []models.UniverseStock {
	out := make([]models.UniverseStock, len(symbols))
	for i, s := range symbols {
		out[i] = models.UniverseStock{Symbol: s, Sector: sector, IsActive: true, MarketCap: 1e8}
	}
	return out
}

// fakeProvider answers by symbol; modes can be switched off to simulate a
// dead source.
type fakeProvider struct {
	mu      sync.Mutex
	quotes  map[string]models.StockObservation
	down    map[models.FetchMode]bool
	panicOn string
	calls   int
}

func (f *fakeProvider) Fetch(_ context.Context, symbol string, mode models.FetchMode) *models.StockObservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if symbol == f.panicOn {
		panic("provider exploded")
	}
	if f.down[mode] {
		return nil
	}
	o, ok := f.quotes[symbol]
	if !ok {
		return nil
	}
	if o.Source == "" {
		o.Source = models.SourceName(mode)
	}
	return &o
}

func quote(symbol string, prev, price float64) models.StockObservation {
	return models.StockObservation{Symbol: symbol, PreviousClose: prev, Price: price, Volume: 1000, AvgVolume: 1000}
}

type fixedBench struct {
	mu    sync.Mutex
	snap  models.BenchmarkSnapshot
	calls int
}

func (f *fixedBench) Get(context.Context) models.BenchmarkSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snap
}

type recordingStore struct {
	mu     sync.Mutex
	stored []*models.SectorSentimentResult
	err    error
}

func (s *recordingStore) Init(context.Context) error { return nil }
func (s *recordingStore) StoreSectorSentiment(_ context.Context, r *models.SectorSentimentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, r)
	return s.err
}
func (s *recordingStore) History(context.Context, string, models.Timeframe, time.Time, time.Time, int) ([]*models.SectorSentimentResult, error) {
	return nil, nil
}
func (s *recordingStore) Health(context.Context) error { return nil }
func (s *recordingStore) Close() error                 { return nil }

type recordingSink struct {
	mu   sync.Mutex
	seen []string
	err  error
}

func (s *recordingSink) PublishResult(_ context.Context, r *models.SectorSentimentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, r.Sector)
	return s.err
}
func (s *recordingSink) Close() error { return nil }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// stallingSource is a source A vendor that never answers for one symbol.
type stallingSource struct{ stall string }

func (s *stallingSource) Name() models.SourceName { return models.SourceA }

func (s *stallingSource) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	if symbol == s.stall {
		<-ctx.Done()
		return models.Quote{}, ctx.Err()
	}
	price, prev, vol, mcap := 10.4, 10.0, int64(1000), 1e8
	return models.Quote{
		Symbol: symbol, Source: models.SourceA,
		Price: &price, PreviousClose: &prev,
		Volume: &vol, AvgVolume: &vol, MarketCap: &mcap,
	}, nil
}
