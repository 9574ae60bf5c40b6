package di

import (
	"context"
	"fmt"
	"time"

	"SectorPulse/internal/domain/models"
	"SectorPulse/internal/domain/repository"
	"SectorPulse/internal/domain/service"
	"SectorPulse/internal/handler/api"
	mid "SectorPulse/internal/middleware"
	internalrepo "SectorPulse/internal/repository"
	"SectorPulse/internal/scheduler"
	"SectorPulse/internal/service/metrics"
	"SectorPulse/internal/service/quotes"
	"SectorPulse/internal/service/ratelimit"
	"SectorPulse/internal/services/sentiment"
	"SectorPulse/internal/usecase"
	"SectorPulse/pkg/cache"
	pkgch "SectorPulse/pkg/clickhouse"
	"SectorPulse/pkg/config"
	xhttp "SectorPulse/pkg/http"
	pkgkafka "SectorPulse/pkg/kafka"
	"SectorPulse/pkg/logger"
	pkgmetrics "SectorPulse/pkg/metrics"
	"SectorPulse/pkg/postgres"
	"SectorPulse/pkg/queue"
	"SectorPulse/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the process logger. The error digest is attached
// later, once the Kafka producer exists.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates the Prometheus recorder and registers API metrics.
func ProvideMetrics() repository.Metrics {
	metrics.Register()
	return pkgmetrics.New()
}

// ProvideRedisCache connects to Redis.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache puts a short-lived in-process layer in front of Redis.
func ProvideCache(rc *cache.RedisCache) cache.Service {
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(1024),
		cache.WithLayeredL1TTL(30*time.Second),
	)
}

// ProvideClickHouseClient connects to ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSentimentStore creates the ClickHouse sentiment table if needed.
func ProvideSentimentStore(ch *pkgch.Client, l *logger.Logger) (repository.SentimentStore, error) {
	store := internalrepo.NewClickHouseSentimentStore(ch, internalrepo.DefaultSentimentTable, l)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates the Kafka producer and routes the error
// digest through it when a digest topic is configured.
func ProvideKafkaProducer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithClientID(cfg.Kafka.ClientID),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Logging.DigestTopic != "" {
		l.AttachDigest(&logger.DigestConfig{
			Interval:  cfg.Logging.DigestWindow,
			Topic:     cfg.Logging.DigestTopic,
			Levels:    []string{"warn", "error"},
			Publisher: producer,
		})
	}
	return producer, nil
}

// ProvidePostgres connects to Postgres and applies the universe schema.
func ProvidePostgres(cfg *config.Config) (*postgres.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	db, err := postgres.New(ctx,
		postgres.WithURL(cfg.Postgres.URL),
		postgres.WithPoolSize(cfg.Postgres.MaxConns, cfg.Postgres.MinConns),
		postgres.WithConnLifetime(cfg.Postgres.MaxConnLifetime, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err := db.Migrate(ctx, internalrepo.UniverseSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return db, nil
}

// ProvideUniverseStore creates the Postgres-backed stock universe.
func ProvideUniverseStore(db *postgres.DB, l *logger.Logger) repository.UniverseStore {
	return internalrepo.NewPostgresUniverseStore(db, l)
}

func sourceOptions(cfg *config.Config, l *logger.Logger, baseURL string) []quotes.Option {
	q := cfg.Quotes
	return []quotes.Option{
		quotes.WithBaseURL(baseURL),
		quotes.WithPace(q.PaceInterval),
		quotes.WithRetry(q.RetryMax),
		quotes.WithClient(xhttp.NewClient(xhttp.WithTimeout(q.Timeout), xhttp.WithUserAgent("sectorpulse/1.0"))),
		quotes.WithLogger(l.Component("quotes")),
	}
}

// ProvidePolygon creates the source B client, or nil without an API key.
// It also serves the timeframe aggregates.
func ProvidePolygon(cfg *config.Config, l *logger.Logger) *quotes.Polygon {
	b := cfg.Quotes.SourceB
	if b.APIKey == "" {
		return nil
	}
	return quotes.NewPolygon(b.APIKey, sourceOptions(cfg, l, b.BaseURL)...)
}

// ProvideQuoteSources lists the vendor clients that have API keys.
func ProvideQuoteSources(cfg *config.Config, poly *quotes.Polygon, l *logger.Logger) []service.QuoteSource {
	var sources []service.QuoteSource
	if a := cfg.Quotes.SourceA; a.APIKey != "" {
		sources = append(sources, quotes.NewFMP(a.APIKey, sourceOptions(cfg, l, a.BaseURL)...))
	}
	if poly != nil {
		sources = append(sources, poly)
	}
	return sources
}

// ProvideQuoteAdapter creates the validated data source adapter.
func ProvideQuoteAdapter(cfg *config.Config, sources []service.QuoteSource, m repository.Metrics, l *logger.Logger) *quotes.Adapter {
	return quotes.NewAdapter(sources,
		quotes.WithPriceBand(cfg.Quotes.MinPrice, cfg.Quotes.MaxPrice),
		quotes.WithCallTimeout(cfg.Quotes.Timeout),
		quotes.WithMetrics(m),
		quotes.WithAdapterLogger(l.Component("adapter")),
	)
}

// ProvideMultipliers maps configured timeframe multipliers.
func ProvideMultipliers(cfg *config.Config) (sentiment.TimeframeMultipliers, error) {
	m := sentiment.TimeframeMultipliers{
		Min30: cfg.Benchmark.Multipliers.Min30,
		Day3:  cfg.Benchmark.Multipliers.Day3,
		Week1: cfg.Benchmark.Multipliers.Week1,
	}
	if err := m.Validate(); err != nil {
		return m, fmt.Errorf("timeframe multipliers: %w", err)
	}
	return m, nil
}

// ProvideEngine creates the volume-weighted performance engine.
func ProvideEngine(cfg *config.Config) (*sentiment.Engine, error) {
	e, err := sentiment.NewEngine(cfg.Aggregation.VolatilityMultiplier)
	if err != nil {
		return nil, fmt.Errorf("performance engine: %w", err)
	}
	return e, nil
}

// ProvideBlender creates the multi-timeframe blender.
func ProvideBlender(cfg *config.Config) (*sentiment.Blender, error) {
	b, err := sentiment.NewBlender(cfg.Aggregation.TimeframeWeights)
	if err != nil {
		return nil, fmt.Errorf("timeframe blender: %w", err)
	}
	return b, nil
}

// ProvideBenchmarkService creates the benchmark service.
func ProvideBenchmarkService(cfg *config.Config, adapter *quotes.Adapter, c cache.Service, mult sentiment.TimeframeMultipliers, m repository.Metrics, l *logger.Logger) (*usecase.BenchmarkService, error) {
	b := cfg.Benchmark
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("benchmark timezone: %w", err)
	}
	svc, err := usecase.NewBenchmarkService(adapter, c, usecase.BenchmarkConfig{
		Symbol:      b.Symbol,
		MinPrice:    b.MinPrice,
		MaxPrice:    b.MaxPrice,
		MaxChange:   b.MaxChange,
		ThinVolume:  b.ThinVolume,
		MarketTTL:   b.MarketTTL,
		AfterTTL:    b.AfterTTL,
		WeekendTTL:  b.WeekendTTL,
		Location:    loc,
		Multipliers: mult,
	}, m, l)
	if err != nil {
		return nil, fmt.Errorf("benchmark service: %w", err)
	}
	return svc, nil
}

// ProvideLiveHub creates the websocket broadcaster.
func ProvideLiveHub(l *logger.Logger) *api.LiveHub {
	return api.NewLiveHub(l)
}

// ProvideResultPipeline fans results out to Kafka and live clients.
func ProvideResultPipeline(cfg *config.Config, producer *pkgkafka.Producer, hub *api.LiveHub, m repository.Metrics, l *logger.Logger) *mid.ResultPipeline {
	return mid.NewResultPipeline(m,
		mid.WithSink("kafka", internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic)),
		mid.WithSink("live", hub),
		mid.WithBufferSize(cfg.Kafka.Producer.RetryBuffer),
		mid.WithPipelineLogger(l),
	)
}

// ProvideSectorAggregator creates the sector orchestrator.
func ProvideSectorAggregator(
	cfg *config.Config,
	universe repository.UniverseStore,
	adapter *quotes.Adapter,
	bench *usecase.BenchmarkService,
	engine *sentiment.Engine,
	mult sentiment.TimeframeMultipliers,
	store repository.SentimentStore,
	c cache.Service,
	pipe *mid.ResultPipeline,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.SectorAggregator {
	return usecase.NewSectorAggregator(universe, adapter, bench, engine, mult,
		usecase.AggregatorConfig{
			SectorWorkers:     cfg.Aggregation.SectorWorkers,
			SuccessRatioAlert: cfg.Aggregation.SuccessRatioAlert,
			ResultTTL:         cfg.Aggregation.ResultTTL,
			Mode:              models.FetchAuto,
		},
		usecase.WithSentimentStore(store),
		usecase.WithResultCache(c),
		usecase.WithResultSink(pipe),
		usecase.WithAggregatorMetrics(m),
		usecase.WithAggregatorLogger(l),
	)
}

// ProvideTimeframeCalculator creates the multi-timeframe calculator. It is
// nil when source B is not configured.
func ProvideTimeframeCalculator(cfg *config.Config, universe repository.UniverseStore, poly *quotes.Polygon, engine *sentiment.Engine, blender *sentiment.Blender, c cache.Service, m repository.Metrics, l *logger.Logger) *usecase.TimeframeCalculator {
	if poly == nil {
		l.Warn("timeframe calculator disabled: source B has no api key")
		return nil
	}
	return usecase.NewTimeframeCalculator(universe, poly, engine, blender, c, cfg.Aggregation.ResultTTL, m, l)
}

// ProvideStockRanker creates the stock ranker.
func ProvideStockRanker(universe repository.UniverseStore, adapter *quotes.Adapter, agg *usecase.SectorAggregator, l *logger.Logger) *usecase.StockRanker {
	return usecase.NewStockRanker(universe, adapter, agg, l)
}

// ProvideQueue creates the sweep queue. It both publishes and consumes.
func ProvideQueue(cfg *config.Config, rc *cache.RedisCache, agg *usecase.SectorAggregator, tf *usecase.TimeframeCalculator, l *logger.Logger) *queue.RedisQueue {
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		JobTimeout: 5 * time.Minute,
	}, rc.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewSweepJob(agg, tf, l))
	return q
}

// ProvideScheduler registers configured sweeps. It returns nil when
// scheduling is off.
func ProvideScheduler(cfg *config.Config, q *queue.RedisQueue, c cache.Service, l *logger.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Schedule.Enabled {
		return nil, nil
	}
	loc, err := time.LoadLocation(cfg.Benchmark.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}
	s := scheduler.New(q, c, l, scheduler.WithLocation(loc), scheduler.WithLockTTL(cfg.Schedule.LockTTL))
	for _, spec := range cfg.Schedule.Sweeps {
		if err := s.AddSweep(spec, cfg.Schedule.RefreshTimeframes); err != nil {
			return nil, fmt.Errorf("schedule %q: %w", spec, err)
		}
	}
	return s, nil
}

// ProvideSectorsHandler builds the HTTP API.
func ProvideSectorsHandler(
	cfg *config.Config,
	agg *usecase.SectorAggregator,
	store repository.SentimentStore,
	tf *usecase.TimeframeCalculator,
	ranker *usecase.StockRanker,
	bench *usecase.BenchmarkService,
	q *queue.RedisQueue,
	hub *api.LiveHub,
	l *logger.Logger,
) xhttp.Handler {
	opts := []api.HandlerOption{
		api.WithHistory(store),
		api.WithRanker(ranker),
		api.WithBenchmark(bench),
		api.WithSweeps(q, ratelimit.New(cfg.Server.SweepRateLimit.Rate, cfg.Server.SweepRateLimit.Burst)),
		api.WithLive(hub),
	}
	if tf != nil {
		opts = append(opts, api.WithTimeframes(tf))
	}
	return api.NewSectorsEchoHandler(l, agg, opts...)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *logger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true),
	}
	if cfg.Metrics.Path != "" {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideApp assembles the application. The Kafka producer is closed by the
// result pipeline through its sink.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	pipe *mid.ResultPipeline,
	q *queue.RedisQueue,
	sched *scheduler.Scheduler,
	bench *usecase.BenchmarkService,
	store repository.SentimentStore,
	ch *pkgch.Client,
	pg *postgres.DB,
	rc *cache.RedisCache,
) *server.App {
	return server.New(cfg, l, server.Components{
		HTTP:      srv,
		Pipeline:  pipe,
		Queue:     q,
		Scheduler: sched,
		Benchmark: bench,
		Store:     store,
		Closers: []server.Closer{
			{Name: "clickhouse", Close: ch.Close},
			{Name: "postgres", Close: func() error { pg.Close(); return nil }},
			{Name: "redis", Close: rc.Close},
		},
	})
}
