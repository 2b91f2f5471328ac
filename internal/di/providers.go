package di

import (
	"context"
	"fmt"
	"time"

	domrepo "Lenxys/internal/domain/repository"
	domsvc "Lenxys/internal/domain/service"
	"Lenxys/internal/handler/api"
	internalrepo "Lenxys/internal/repository"
	icache "Lenxys/internal/service/cache"
	"Lenxys/internal/services/backtest"
	"Lenxys/internal/services/ensemble"
	"Lenxys/internal/services/execution"
	artifacts "Lenxys/internal/services/models"
	"Lenxys/internal/services/signal"
	"Lenxys/internal/usecase"
	pkgch "Lenxys/pkg/clickhouse"
	"Lenxys/pkg/config"
	xhttp "Lenxys/pkg/http"
	pkgkafka "Lenxys/pkg/kafka"
	applogger "Lenxys/pkg/logger"
	"Lenxys/pkg/metrics"
	"Lenxys/pkg/server"
)

// ProvideLogger creates the root logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithSchema(internalrepo.Schema(cfg.ClickHouse.Database)),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(cfg.Environment == "development"),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes domain events on Kafka, or drops them when
// kafka is disabled. The aggregated log collector is attached here since it
// shares the producer.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	if cfg.Log.Collect {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.FlushEvery,
			CountThreshold: cfg.Log.MaxUnique,
			Topic:          cfg.Log.Topic,
			Publisher:      producer,
		})
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Forecasts, cfg.Kafka.Topics.RunCompleted)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

func ProvideFeatureStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.FeatureStore {
	s := internalrepo.NewCHFeatureStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l.With("feature_store"))
	return s
}

func ProvideModelRegistry(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.ModelCatalog {
	r := internalrepo.NewCHModelRegistry(ch, cfg.ClickHouse.Database)
	r.SetLogger(l.With("model_registry"))
	return r
}

func ProvideRunStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.RunStore {
	s := internalrepo.NewCHRunStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l.With("run_store"))
	return s
}

func ProvideArtifactStore(cfg *config.Config) *artifacts.FileLoader {
	return artifacts.NewFileLoader(cfg.Models.ArtifactDir)
}

// ProvideModelLoader reads local artifacts first and falls back to the model
// service when one is configured.
func ProvideModelLoader(file *artifacts.FileLoader, cfg *config.Config) domrepo.ModelLoader {
	if cfg.Models.ServiceURL == "" {
		return file
	}
	remote := artifacts.NewRemoteLoader(cfg.Models.ServiceURL, cfg.Models.Timeout, cfg.Models.RetryAttempts)
	return artifacts.ChainLoader{file, remote}
}

func ProvideModelCache(loader domrepo.ModelLoader) *ensemble.ModelCache {
	return ensemble.NewModelCache(loader)
}

func ProvideForecaster(store domrepo.FeatureStore, registry domrepo.ModelCatalog, cache *ensemble.ModelCache, cfg *config.Config, l *applogger.Logger) domsvc.Forecaster {
	b := ensemble.New(store, registry, cache, cfg.Forecast.HorizonIntervals)
	b.SetLogger(l.With("ensemble"))
	return b
}

func ProvideSignalPolicy(cfg *config.Config) domsvc.SignalDecider {
	th := make(map[string]signal.Threshold, len(cfg.Signal.Thresholds))
	for h, t := range cfg.Signal.Thresholds {
		th[h] = signal.Threshold{MinReturn: t.MinReturn, MinConfidence: t.MinConfidence}
	}
	fb := signal.Threshold{MinReturn: cfg.Signal.Fallback.MinReturn, MinConfidence: cfg.Signal.Fallback.MinConfidence}
	return signal.NewPolicy(th, fb)
}

func ProvideExecutionModel(cfg *config.Config) *execution.Model {
	return execution.New(execution.Config{SlippageBps: cfg.Execution.SlippageBps, FeeBps: cfg.Execution.FeeBps})
}

// ProvideForecastCache uses redis when enabled and reachable, otherwise an
// in-process TTL cache.
func ProvideForecastCache(cfg *config.Config, l *applogger.Logger) icache.BytesCache {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache()
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "lenxys:",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-process cache", applogger.String("addr", cfg.Redis.Addr), applogger.Error(err))
		_ = rc.Close()
		return icache.NewTTLCache()
	}
	return rc
}

func ProvideForecastUseCase(f domsvc.Forecaster, c icache.BytesCache, pub domrepo.EventPublisher, m domrepo.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.ForecastUseCase {
	uc := usecase.NewForecastUseCase(f, c, cfg.Forecast.CacheTTL, pub, m)
	uc.SetLogger(l.With("forecast"))
	return uc
}

func ProvideFeatureGenerator(store domrepo.FeatureStore, cfg *config.Config, l *applogger.Logger) *usecase.FeatureGenerator {
	g := usecase.NewFeatureGenerator(store, cfg.Simulation.CandleLimit)
	g.SetLogger(l.With("features"))
	return g
}

func ProvideSimulationRunner(
	store domrepo.FeatureStore,
	gen *usecase.FeatureGenerator,
	f domsvc.Forecaster,
	policy domsvc.SignalDecider,
	runs domrepo.RunStore,
	pub domrepo.EventPublisher,
	m domrepo.Metrics,
	exec *execution.Model,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.SimulationRunner {
	r := usecase.NewSimulationRunner(usecase.SimulationDeps{
		Store:      store,
		Generator:  gen,
		Forecaster: f,
		Policy:     policy,
		Runs:       runs,
		Publisher:  pub,
		Metrics:    m,
		Execution:  exec,
		Backtest: backtest.Config{
			InitialCapital:  cfg.Backtest.InitialCapital,
			PositionSizePct: cfg.Backtest.PositionSizePct,
		},
		DefaultHorizon:   cfg.Simulation.DefaultHorizon,
		HorizonIntervals: cfg.Forecast.HorizonIntervals,
		CandleLimit:      cfg.Simulation.CandleLimit,
	})
	r.SetLogger(l.With("simulation"))
	return r
}

func ProvideModelsUseCase(catalog domrepo.ModelCatalog, store *artifacts.FileLoader, cache *ensemble.ModelCache, l *applogger.Logger) *usecase.ModelsUseCase {
	uc := usecase.NewModelsUseCase(catalog, store, cache)
	uc.SetLogger(l.With("models"))
	return uc
}

func ProvideCandlesUseCase(store domrepo.FeatureStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

func ProvideReportUseCase(runs domrepo.RunStore, cfg *config.Config) *usecase.ReportUseCase {
	return usecase.NewReportUseCase(runs, cfg.Reports.OutputDir, cfg.Reports.TopN)
}

// ProvideKafkaConsumer creates the candle consumer, or nil when kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	cl := l.With("kafka_consumer")
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(cl),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TraceHook{},
		pkgkafka.JSONHook{},
		pkgkafka.LoggingHook{L: cl},
	))
	return consumer, nil
}

func ProvideKafkaCandlesHandler(store domrepo.FeatureStore, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.Topics.Candles, store, m)
}

// ProvideHTTPHandler registers every API route.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	ch *pkgch.Client,
	forecasts *usecase.ForecastUseCase,
	sims *usecase.SimulationRunner,
	candles *usecase.CandlesUseCase,
	gen *usecase.FeatureGenerator,
	reports *usecase.ReportUseCase,
	cache *ensemble.ModelCache,
	modelsUC *usecase.ModelsUseCase,
) xhttp.Handler {
	hl := l.With("api")
	return api.NewRouter(
		api.NewStatusHandler(cfg.Environment, map[string]api.HealthCheck{"clickhouse": ch.Health}),
		api.NewForecastHandler(forecasts, hl),
		api.NewRunsHandler(sims, hl),
		api.NewCandlesHandler(candles, hl),
		api.NewAdminHandler(gen, cache, reports, hl),
		api.NewModelsHandler(modelsUC, hl),
		api.NewStreamHandler(forecasts, api.StreamConfig{
			Interval:       cfg.Stream.Interval,
			MaxSymbols:     cfg.Stream.MaxSymbols,
			ConnsPerSecond: cfg.Stream.MaxConnsRPS,
			DefaultSymbols: cfg.Models.DefaultSymbols,
		}, hl),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	ch *pkgch.Client,
	pub domrepo.EventPublisher,
	cache icache.BytesCache,
) *server.App {
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}
	app := server.New(cfg, l, handler, consumer, mh, ch)
	app.AddCloser(pub)
	if rc, ok := cache.(*icache.RedisCache); ok {
		app.AddCloser(rc)
	}
	return app
}
