package quotes

import (
	"context"
	"errors"
	"time"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/domain/repository"
	"SectorPulse/internal/domain/service"
	xhttp "SectorPulse/pkg/http"
	"SectorPulse/pkg/logger"
)

// MinAutoQuality is the score source A must reach in auto mode before source
// B is consulted.
const MinAutoQuality = 0.7

// Adapter implements service.StockDataProvider over the two vendor sources.
// It never caches and never returns vendor errors to callers.
type Adapter struct {
	sources map[models.SourceName]service.QuoteSource
	band    PriceBand
	timeout time.Duration
	metrics repository.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// AdapterOption configures Adapter.
type AdapterOption func(*Adapter)

// WithPriceBand sets the sane price range.
func WithPriceBand(min, max float64) AdapterOption {
	return func(a *Adapter) {
		if max > min {
			a.band = PriceBand{Min: min, Max: max}
		}
	}
}

// WithCallTimeout bounds each source call.
func WithCallTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMetrics records fetch outcomes.
func WithMetrics(m repository.Metrics) AdapterOption {
	return func(a *Adapter) { a.metrics = m }
}

// WithAdapterLogger sets the logger.
func WithAdapterLogger(l *logger.Logger) AdapterOption {
	return func(a *Adapter) { a.log = l }
}

// NewAdapter registers sources by name. Nil sources are skipped so a missing
// API key simply leaves that source out.
func NewAdapter(sources []service.QuoteSource, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		sources: make(map[models.SourceName]service.QuoteSource, len(sources)),
		band:    PriceBand{Min: 0.01, Max: 10000},
		timeout: 5 * time.Second,
		metrics: repository.NopMetrics{},
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, s := range sources {
		if s != nil {
			a.sources[s.Name()] = s
		}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch returns a validated observation for symbol, or nil.
func (a *Adapter) Fetch(ctx context.Context, symbol string, mode models.FetchMode) *models.StockObservation {
	switch mode {
	case models.FetchSourceA, models.FetchSourceB:
		res := a.Query(ctx, models.SourceName(mode), symbol)
		if !res.OK {
			return nil
		}
		return a.observe(res)
	case models.FetchAuto, "":
		first := a.Query(ctx, models.SourceA, symbol)
		if first.OK && first.Quality >= MinAutoQuality {
			return a.observe(first)
		}
		second := a.Query(ctx, models.SourceB, symbol)
		if second.OK {
			return a.observe(second)
		}
		return nil
	default:
		a.log.Warn("unknown fetch mode", logger.String("mode", string(mode)))
		return nil
	}
}

// Query calls one source and classifies the outcome.
func (a *Adapter) Query(ctx context.Context, name models.SourceName, symbol string) models.SourceResult {
	res := models.SourceResult{Source: name}
	src, ok := a.sources[name]
	if !ok {
		res.Kind = models.SourceErrNetwork
		res.Err = errors.New("source not configured")
		return res
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	q, err := src.GetQuote(cctx, symbol)
	if err != nil {
		res.Kind = classify(err)
		res.Err = err
		a.metrics.RecordFetch(string(name), string(res.Kind))
		a.log.Debug("quote fetch failed",
			logger.String("source", string(name)),
			logger.String("symbol", symbol),
			logger.String("kind", string(res.Kind)),
			logger.Error(err),
		)
		return res
	}

	res.Quote = q
	res.Quality = ScoreQuote(q, a.band)
	if !usable(q, a.band) {
		res.Kind = models.SourceErrInvalid
		a.metrics.RecordFetch(string(name), string(res.Kind))
		return res
	}
	res.OK = true
	a.metrics.RecordFetch(string(name), "ok")
	return res
}

func (a *Adapter) observe(res models.SourceResult) *models.StockObservation {
	q := res.Quote
	o := &models.StockObservation{
		Symbol:        q.Symbol,
		Price:         *q.Price,
		PreviousClose: *q.PreviousClose,
		Source:        res.Source,
		Quality:       res.Quality,
		FetchedAt:     a.now().UTC(),
	}
	if q.Volume != nil && *q.Volume > 0 {
		o.Volume = *q.Volume
	}
	if q.AvgVolume != nil && *q.AvgVolume > 0 {
		o.AvgVolume = *q.AvgVolume
	}
	if q.MarketCap != nil {
		o.MarketCap = *q.MarketCap
	}
	return o
}

func classify(err error) models.SourceErrorKind {
	switch {
	case errors.Is(err, ErrNoData):
		return models.SourceErrEmpty
	case errors.Is(err, xhttp.ErrDecode):
		return models.SourceErrParse
	default:
		return models.SourceErrNetwork
	}
}
