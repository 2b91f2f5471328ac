//go:build wireinject
// +build wireinject

package di

import (
	"Lenxys/pkg/config"
	"Lenxys/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideForecastCache,

		// Repositories
		ProvideFeatureStore,
		ProvideModelRegistry,
		ProvideRunStore,
		ProvideEventPublisher,

		// Core services
		ProvideArtifactStore,
		ProvideModelLoader,
		ProvideModelCache,
		ProvideForecaster,
		ProvideSignalPolicy,
		ProvideExecutionModel,

		// Use cases
		ProvideForecastUseCase,
		ProvideFeatureGenerator,
		ProvideSimulationRunner,
		ProvideCandlesUseCase,
		ProvideReportUseCase,
		ProvideModelsUseCase,
		ProvideKafkaCandlesHandler,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
