//go:build wireinject
// +build wireinject

package di

import (
	"SectorPulse/pkg/config"
	"SectorPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideCache,
		ProvideClickHouseClient,
		ProvidePostgres,

		// Repositories
		ProvideSentimentStore,
		ProvideUniverseStore,

		// Quote sources and scoring
		ProvidePolygon,
		ProvideQuoteSources,
		ProvideQuoteAdapter,
		ProvideMultipliers,
		ProvideEngine,
		ProvideBlender,

		// Use cases
		ProvideBenchmarkService,
		ProvideLiveHub,
		ProvideResultPipeline,
		ProvideSectorAggregator,
		ProvideTimeframeCalculator,
		ProvideStockRanker,

		// Background work
		ProvideQueue,
		ProvideScheduler,

		// Application server
		ProvideSectorsHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
