package commands

import (
	"context"
	"fmt"

	"SectorPulse/internal/di"
	"SectorPulse/internal/domain/repository"
	"SectorPulse/internal/usecase"
	"SectorPulse/pkg/cache"
	"SectorPulse/pkg/config"
	"SectorPulse/pkg/logger"
	"SectorPulse/pkg/postgres"
)

// toolkit is the in-process subset of the service a one-shot command needs.
// It uses a memory cache, so nothing it computes leaks into the shared Redis.
type toolkit struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *postgres.DB
	universe repository.UniverseStore
	bench    *usecase.BenchmarkService
	agg      *usecase.SectorAggregator
	tf       *usecase.TimeframeCalculator
	ranker   *usecase.StockRanker
	closers  []func()
}

func newToolkit(cfg *config.Config, persist bool) (*toolkit, error) {
	log, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	tk := &toolkit{cfg: cfg, log: log}

	db, err := di.ProvidePostgres(cfg)
	if err != nil {
		return nil, err
	}
	tk.db = db
	tk.closers = append(tk.closers, db.Close)
	tk.universe = di.ProvideUniverseStore(db, log)

	metrics := repository.NopMetrics{}
	mem := cache.NewMemoryCache()
	tk.closers = append(tk.closers, func() { _ = mem.Close() })

	poly := di.ProvidePolygon(cfg, log)
	adapter := di.ProvideQuoteAdapter(cfg, di.ProvideQuoteSources(cfg, poly, log), metrics, log)

	mult, err := di.ProvideMultipliers(cfg)
	if err != nil {
		tk.Close()
		return nil, err
	}
	engine, err := di.ProvideEngine(cfg)
	if err != nil {
		tk.Close()
		return nil, err
	}
	blender, err := di.ProvideBlender(cfg)
	if err != nil {
		tk.Close()
		return nil, err
	}
	tk.bench, err = di.ProvideBenchmarkService(cfg, adapter, mem, mult, metrics, log)
	if err != nil {
		tk.Close()
		return nil, err
	}

	aggOpts := []usecase.AggregatorOption{
		usecase.WithResultCache(mem),
		usecase.WithAggregatorLogger(log),
	}
	if persist {
		store, err := tk.sentimentStore()
		if err != nil {
			tk.Close()
			return nil, err
		}
		aggOpts = append(aggOpts, usecase.WithSentimentStore(store))
	}
	tk.agg = usecase.NewSectorAggregator(tk.universe, adapter, tk.bench, engine, mult, usecase.AggregatorConfig{
		SectorWorkers:     cfg.Aggregation.SectorWorkers,
		SuccessRatioAlert: cfg.Aggregation.SuccessRatioAlert,
		ResultTTL:         cfg.Aggregation.ResultTTL,
	}, aggOpts...)

	if poly != nil {
		tk.tf = usecase.NewTimeframeCalculator(tk.universe, poly, engine, blender, mem, cfg.Aggregation.ResultTTL, metrics, log)
	}
	tk.ranker = usecase.NewStockRanker(tk.universe, adapter, tk.agg, log)
	return tk, nil
}

func (tk *toolkit) sentimentStore() (repository.SentimentStore, error) {
	ch, err := di.ProvideClickHouseClient(tk.cfg)
	if err != nil {
		return nil, err
	}
	store, err := di.ProvideSentimentStore(ch, tk.log)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	tk.closers = append(tk.closers, func() { _ = ch.Close() })
	return store, nil
}

// timeframes fails when source B is not configured.
func (tk *toolkit) timeframes(ctx context.Context, sector string) (interface{}, error) {
	if tk.tf == nil {
		return nil, fmt.Errorf("timeframes need quotes.source_b.api_key")
	}
	return tk.tf.Calculate(ctx, sector, true)
}

// Close releases clients in reverse order of creation.
func (tk *toolkit) Close() {
	for i := len(tk.closers) - 1; i >= 0; i-- {
		tk.closers[i]()
	}
	tk.closers = nil
}
