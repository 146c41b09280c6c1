package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"SimTape/internal/domain/repository"
	domservice "SimTape/internal/domain/service"
	"SimTape/internal/handler/api"
	"SimTape/internal/jobs"
	mid "SimTape/internal/middleware"
	internalrepo "SimTape/internal/repository"
	"SimTape/internal/scenario"
	icache "SimTape/internal/service/cache"
	"SimTape/internal/service/simstream"
	"SimTape/internal/services/indicators"
	"SimTape/internal/simulation"
	"SimTape/internal/stream"
	"SimTape/internal/usecase"
	pkgcache "SimTape/pkg/cache"
	pkgch "SimTape/pkg/clickhouse"
	"SimTape/pkg/config"
	xhttp "SimTape/pkg/http"
	pkgkafka "SimTape/pkg/kafka"
	applogger "SimTape/pkg/logger"
	"SimTape/pkg/metrics"
	"SimTape/pkg/queue"
	"SimTape/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if lc.Format == "" {
		lc.Format = "console"
	}
	if lc.Output == "" {
		lc.Output = "stdout"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client. Schema setup is
// owned by the candle storage repository.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCandleStorage creates the ClickHouse candle repository and
// initializes its schema.
func ProvideCandleStorage(chClient *pkgch.Client, cfg *config.Config, lgr *applogger.Logger) (repository.Storage, error) {
	tf := repository.NormalizeTimeframe(cfg.Simulation.Timeframe)
	store := internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".sim_candles", tf)
	store.SetLogger(lgr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideCandlePublisher creates the Kafka publisher repository.
func ProvideCandlePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer when the kafka backend is
// active. Other backends store candles directly and need no read-back loop.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaCandlesHandler registers the handler for the candles topic.
func ProvideKafkaCandlesHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideBlobCache picks the byte cache implementation: Redis when
// configured, otherwise in-process TTL cache.
func ProvideBlobCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideSignalCache picks the signal response cache: layered memory+Redis
// when Redis is reachable, in-process memory otherwise.
func ProvideSignalCache(cfg *config.Config, lgr *applogger.Logger) pkgcache.Service {
	if cfg.Redis.Enabled {
		host, port := splitHostPort(cfg.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc)
		}
		lgr.Warn("redis cache unavailable, falling back to memory", applogger.Error(err))
	}
	return pkgcache.NewMemoryCache()
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6379
	}
	return host, port
}

// ProvideScenarioStore creates the scenario store with persistence.
func ProvideScenarioStore(blob icache.BytesCache, lgr *applogger.Logger) *scenario.Store {
	return scenario.NewStore(blob, lgr)
}

// ProvideEngine creates the candle generation engine.
func ProvideEngine(cfg *config.Config) *simulation.Engine {
	return simulation.NewEngine(cfg.Simulation.SessionOpenHour, cfg.Simulation.SessionCloseHour)
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(engine *simulation.Engine, store *scenario.Store, cfg *config.Config) *usecase.CandlesUseCase {
	symbols := make(map[string]float64, len(cfg.Simulation.Symbols))
	for _, s := range cfg.Simulation.Symbols {
		symbols[s.Symbol] = s.StartPrice
	}
	return usecase.NewCandlesUseCase(engine, store, symbols)
}

// ProvideScanner creates the indicator scanner.
func ProvideScanner() domservice.SignalScanner {
	return indicators.NewScanner()
}

// ProvideSignalsUseCase creates the signal scan use case.
func ProvideSignalsUseCase(candles *usecase.CandlesUseCase, scanner domservice.SignalScanner) *usecase.SignalsUseCase {
	return usecase.NewSignalsUseCase(candles, scanner)
}

// ProvideScenarioUseCase creates the scenario control use case.
func ProvideScenarioUseCase(store *scenario.Store, engine *simulation.Engine) *usecase.ScenarioUseCase {
	return usecase.NewScenarioUseCase(store, engine)
}

// ProvideHub creates the WebSocket broadcast hub.
func ProvideHub(lgr *applogger.Logger, m repository.Metrics) *stream.Hub {
	return stream.NewHub(lgr, m)
}

// ProvideCandleStream creates the simulated candle stream.
func ProvideCandleStream(candles *usecase.CandlesUseCase, cfg *config.Config) repository.CandleStream {
	names := make([]string, 0, len(cfg.Simulation.Symbols))
	for _, s := range cfg.Simulation.Symbols {
		names = append(names, s.Symbol)
	}
	tf := repository.NormalizeTimeframe(cfg.Simulation.Timeframe)
	return simstream.New(candles, names, tf, cfg.Simulation.TickInterval)
}

// ProvideCandleProcessor creates the candle processor use case.
func ProvideCandleProcessor(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.CandleProcessor {
	return usecase.NewCandleProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideCandleCollector creates the candle collector use case.
func ProvideCandleCollector(
	candleStream repository.CandleStream,
	processor *usecase.CandleProcessor,
	m repository.Metrics,
	hub *stream.Hub,
) *usecase.CandleCollector {
	// Pipeline between the simulated stream and the backend
	pipe := mid.NewCandlePipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewCandleCollector(candleStream, processor, m, pipe, hub)
}

// ProvideHTTPHandler assembles the Echo route handlers.
func ProvideHTTPHandler(
	lgr *applogger.Logger,
	candles *usecase.CandlesUseCase,
	signals *usecase.SignalsUseCase,
	scenarios *usecase.ScenarioUseCase,
	hub *stream.Hub,
	store repository.Storage,
	collector *usecase.CandleCollector,
	blob icache.BytesCache,
	sigCache pkgcache.Service,
) xhttp.Handler {
	market := api.NewMarketEchoHandler(lgr, candles, signals)
	market.SetCache(blob)
	market.SetSignalCache(sigCache)
	return api.NewRouter(
		market,
		api.NewScenarioEchoHandler(lgr, scenarios),
		api.NewStreamEchoHandler(lgr, hub, store, collector),
	)
}

// ProvideRotationQueue creates the Redis-backed scenario rotation queue.
// Returns nil when Redis is disabled; the app then runs without rotation.
func ProvideRotationQueue(cfg *config.Config, lgr *applogger.Logger, scenarios *usecase.ScenarioUseCase, m repository.Metrics) *queue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    1,
		QueueSize:  64,
		RetryLimit: 3,
		RetryDelay: 5 * time.Second,
	}, client, queue.ModeProducerConsumer)
	q.RegisterJob(jobs.NewRotateScenarioJob(scenarios, lgr))
	q.RegisterJob(jobs.NewErrorDigestJob(lgr, m))
	return q
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	chClient *pkgch.Client,
	rotation *queue.RedisQueue,
	httpHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	// Aggregate error-level log bursts through the queue when available
	if rotation != nil {
		lgr.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "logs.error.aggregate",
			Publisher:      rotation,
		})
	}
	app := server.New(cfg, lgr, collector, consumer, kh, chClient, rotation)
	app.SetHTTPHandler(httpHandler)
	if collector != nil {
		app.CandleProc = collector.Processor()
	}
	return app
}
