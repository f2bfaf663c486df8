//go:build wireinject
// +build wireinject

package di

import (
	"MarketBrief/pkg/config"
	"MarketBrief/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideLayeredCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideContextStore,
		ProvideHistoryStore,
		ProvideEventPublisher,

		// Provider adapters
		ProvideFREDClient,
		ProvidePolygonClient,
		ProvideLiveMarketDataSource,
		ProvideSearchClient,
		ProvideProviderLimiter,
		ProvideSynthesizerLLM,

		// Use cases
		ProvideNewsSources,
		ProvideAggregator,
		ProvideSynthesizer,
		ProvideManager,
		ProvideOrchestrator,
		ProvideKafkaEventsHandler,

		// Background work
		ProvideWorkerQueue,
		ProvideScheduler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
