//go:build wireinject
// +build wireinject

package di

import (
	"SimTape/pkg/config"
	"SimTape/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideBlobCache,
		ProvideSignalCache,

		// Repositories
		ProvideCandleStorage,
		ProvideCandlePublisher,

		// Simulation core
		ProvideEngine,
		ProvideScenarioStore,
		ProvideCandleStream,

		// Use cases
		ProvideCandlesUseCase,
		ProvideScanner,
		ProvideSignalsUseCase,
		ProvideScenarioUseCase,
		ProvideCandleProcessor,
		ProvideCandleCollector,
		ProvideKafkaCandlesHandler,

		// Delivery
		ProvideHub,
		ProvideHTTPHandler,
		ProvideRotationQueue,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
