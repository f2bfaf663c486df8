package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"MarketBrief/internal/domain/repository"
	domsvc "MarketBrief/internal/domain/service"
	"MarketBrief/internal/handler/api"
	"MarketBrief/internal/jobs"
	internalrepo "MarketBrief/internal/repository"
	"MarketBrief/internal/service/alphavantage"
	icache "MarketBrief/internal/service/cache"
	"MarketBrief/internal/service/fred"
	"MarketBrief/internal/service/llm"
	"MarketBrief/internal/service/polygon"
	"MarketBrief/internal/service/ratelimit"
	"MarketBrief/internal/service/search"
	"MarketBrief/internal/usecase"
	pkgcache "MarketBrief/pkg/cache"
	pkgch "MarketBrief/pkg/clickhouse"
	"MarketBrief/pkg/config"
	pkgkafka "MarketBrief/pkg/kafka"
	applogger "MarketBrief/pkg/logger"
	"MarketBrief/pkg/metrics"
	"MarketBrief/pkg/queue"
	"MarketBrief/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache creates the Redis-backed cache client.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Redis.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideLayeredCache wraps Redis with an in-memory L1.
func ProvideLayeredCache(rc *pkgcache.RedisCache) *pkgcache.LayeredCache {
	return pkgcache.NewLayeredCache(rc)
}

// ProvideClickHouseClient creates a ClickHouse client and applies the ledger
// schema.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.HistorySchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
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

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
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

// ProvideContextStore creates the persisted-context repository.
func ProvideContextStore(lc *pkgcache.LayeredCache) repository.ContextStore {
	return internalrepo.NewRedisContextStore(lc)
}

// ProvideHistoryStore creates the ClickHouse audit ledger.
func ProvideHistoryStore(ch *pkgch.Client, l *applogger.Logger) repository.HistoryStore {
	store := internalrepo.NewCHHistoryStore(ch)
	store.SetLogger(l)
	return store
}

// ProvideEventPublisher creates the Kafka context-event publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideFREDClient creates the economic data adapter.
func ProvideFREDClient(cfg *config.Config) repository.EconomicDataSource {
	return fred.New(cfg.Providers.FRED.APIKey, cfg.Providers.FRED.BaseURL, cfg.Providers.FRED.Timeout)
}

// ProvidePolygonClient creates the live market data adapter with an attached
// WebSocket stream when one is configured. Returns nil when disabled so the
// orchestrator skips live data entirely.
func ProvidePolygonClient(cfg *config.Config) *polygon.Client {
	if !cfg.Providers.Polygon.Enabled {
		return nil
	}
	p := cfg.Providers.Polygon
	client := polygon.New(p.APIKey, p.BaseURL, p.Timeout)
	if p.WebSocketURL != "" {
		client.AttachStream(polygon.NewStream(p.APIKey, p.WebSocketURL, p.ReconnectDelay, p.PingInterval))
	}
	return client
}

// ProvideLiveMarketDataSource adapts the polygon client to the domain port.
func ProvideLiveMarketDataSource(pc *polygon.Client) repository.LiveMarketDataSource {
	if pc == nil {
		return nil
	}
	return pc
}

// ProvideSearchClient creates the web search adapter, nil when disabled.
func ProvideSearchClient(cfg *config.Config) repository.SearchSource {
	if !cfg.Providers.Search.Enabled {
		return nil
	}
	s := cfg.Providers.Search
	return search.New(s.APIKey, s.BaseURL, s.Timeout)
}

// ProvideProviderLimiter creates the process-wide provider rate limiter.
func ProvideProviderLimiter(cfg *config.Config) *ratelimit.ProviderLimiter {
	return ratelimit.NewProviderLimiter(cfg.Providers.Search.MinInterval, cfg.Providers.Polygon.PerMinute)
}

// ProvideSynthesizerLLM creates the Claude-backed text synthesizer.
func ProvideSynthesizerLLM(cfg *config.Config) (domsvc.TextSynthesizer, error) {
	return llm.NewClaude(llm.Config{
		APIKey:      cfg.Claude.APIKey,
		Model:       cfg.Claude.Model,
		MaxTokens:   cfg.Claude.MaxTokens,
		Temperature: cfg.Claude.Temperature,
		Timeout:     cfg.Claude.Timeout,
	})
}

// ProvideNewsSources assembles the per-provider aggregation sources.
func ProvideNewsSources(
	econ repository.EconomicDataSource,
	pc *polygon.Client,
	searchClient repository.SearchSource,
	cfg *config.Config,
) []repository.NewsSource {
	sources := []repository.NewsSource{
		&usecase.FREDSource{Client: econ},
		&usecase.SearchNewsSource{
			Client: searchClient,
			On:     cfg.Providers.Search.Enabled,
			Limit:  cfg.Providers.Search.MaxResults,
		},
	}
	if pc != nil {
		sources = append(sources, &usecase.PolygonSource{Client: pc, On: cfg.Providers.Polygon.Enabled})
	}
	if cfg.Providers.AlphaVantage.Enabled {
		av := cfg.Providers.AlphaVantage
		sources = append(sources, &usecase.AlphaVantageSource{
			Client: alphavantage.New(av.APIKey, av.BaseURL, av.Timeout),
			On:     true,
		})
	}
	return sources
}

// ProvideAggregator creates the news aggregator.
func ProvideAggregator(
	sources []repository.NewsSource,
	limits *ratelimit.ProviderLimiter,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.NewsAggregator {
	return usecase.NewNewsAggregator(sources, limits, m, l)
}

// ProvideSynthesizer creates the news synthesizer.
func ProvideSynthesizer(llmClient domsvc.TextSynthesizer, m repository.Metrics, l *applogger.Logger) *usecase.NewsSynthesizer {
	return usecase.NewNewsSynthesizer(llmClient, m, l)
}

// ProvideManager creates the news manager.
func ProvideManager(
	agg *usecase.NewsAggregator,
	synth *usecase.NewsSynthesizer,
	store repository.ContextStore,
	history repository.HistoryStore,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.NewsManager {
	return usecase.NewNewsManager(agg, synth, store, history, events, m, l)
}

// ProvideOrchestrator creates the data orchestrator.
func ProvideOrchestrator(
	econ repository.EconomicDataSource,
	live repository.LiveMarketDataSource,
	searchClient repository.SearchSource,
	limits *ratelimit.ProviderLimiter,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.DataOrchestrator {
	return usecase.NewDataOrchestrator(econ, live, searchClient, limits, m, l,
		usecase.WithContextTTL(cfg.Cache.ContextTTL),
		usecase.WithSearchTTL(cfg.Cache.SearchTTL),
		usecase.WithMaxSearchResults(cfg.Providers.Search.MaxResults),
	)
}

// ProvideKafkaEventsHandler registers the context-event consumer handler.
func ProvideKafkaEventsHandler(orch *usecase.DataOrchestrator, cfg *config.Config, l *applogger.Logger) *usecase.KafkaEventsHandler {
	return usecase.NewKafkaEventsHandler(cfg.Kafka.Topic, orch, l)
}

// ProvideWorkerQueue creates the Redis-backed job queue running refresh jobs.
func ProvideWorkerQueue(
	cfg *config.Config,
	rc *pkgcache.RedisCache,
	manager *usecase.NewsManager,
	l *applogger.Logger,
) *queue.RedisQueue {
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	opts := []queue.RedisQueueOption{}
	if cfg.Queue.KeyPrefix != "" {
		opts = append(opts, queue.WithKeyPrefix(cfg.Queue.KeyPrefix))
	}
	q := queue.NewRedisQueue(l, qcfg, rc.Client(), queue.ModeProducerConsumer, opts...)
	q.RegisterJob(jobs.NewContextRefreshJob(manager, l))
	return q
}

// ProvideScheduler creates the hourly refresh scheduler.
func ProvideScheduler(
	cfg *config.Config,
	orch *usecase.DataOrchestrator,
	q *queue.RedisQueue,
	l *applogger.Logger,
) (*jobs.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	return jobs.NewScheduler(cfg.Scheduler, orch, q, l)
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.DataOrchestrator,
	manager *usecase.NewsManager,
	events repository.EventPublisher,
	store repository.ContextStore,
	history repository.HistoryStore,
) *api.ContextEchoHandler {
	h := api.NewContextEchoHandler(l, orch, manager, events, store, history)
	if cfg.Redis.Addr != "" {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.ContextEchoHandler,
	consumer *pkgkafka.Consumer,
	eventsHandler *usecase.KafkaEventsHandler,
	workerQueue *queue.RedisQueue,
	scheduler *jobs.Scheduler,
	pc *polygon.Client,
	chClient *pkgch.Client,
	rc *pkgcache.RedisCache,
	events repository.EventPublisher,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, l, handler, consumer, eventsHandler, workerQueue, scheduler, pc, chClient, rc, events)
}
