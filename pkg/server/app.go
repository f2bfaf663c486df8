package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MarketBrief/internal/domain/repository"
	"MarketBrief/internal/jobs"
	"MarketBrief/internal/service/polygon"
	pkgcache "MarketBrief/pkg/cache"
	pkgch "MarketBrief/pkg/clickhouse"
	"MarketBrief/pkg/config"
	xhttp "MarketBrief/pkg/http"
	pkgkafka "MarketBrief/pkg/kafka"
	applogger "MarketBrief/pkg/logger"
	"MarketBrief/pkg/queue"
)

// App encapsulates the entire application lifecycle: HTTP API, Kafka
// event consumer, worker queue, refresh scheduler, and the optional live
// rate stream.
type App struct {
	cfg           *config.Config
	l             *applogger.Logger
	httpHandler   xhttp.Handler
	httpServer    *xhttp.Server
	consumer      *pkgkafka.Consumer
	eventsHandler pkgkafka.MessageHandler
	workerQueue   *queue.RedisQueue
	scheduler     *jobs.Scheduler
	polygonClient *polygon.Client
	chClient      *pkgch.Client
	redisCache    *pkgcache.RedisCache
	events        repository.EventPublisher
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpHandler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	eventsHandler pkgkafka.MessageHandler,
	workerQueue *queue.RedisQueue,
	scheduler *jobs.Scheduler,
	polygonClient *polygon.Client,
	chClient *pkgch.Client,
	redisCache *pkgcache.RedisCache,
	events repository.EventPublisher,
) *App {
	return &App{
		cfg:           cfg,
		l:             l,
		httpHandler:   httpHandler,
		consumer:      consumer,
		eventsHandler: eventsHandler,
		workerQueue:   workerQueue,
		scheduler:     scheduler,
		polygonClient: polygonClient,
		chClient:      chClient,
		redisCache:    redisCache,
		events:        events,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start worker queue
	if a.workerQueue != nil {
		if err := a.workerQueue.Start(); err != nil {
			a.l.Error("worker queue start error", applogger.Error(err))
			return err
		}
		a.workerQueue.StartRetryProcessor()
		a.l.Info("worker queue started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	// Start context-event consumer if configured
	if a.consumer != nil && a.eventsHandler != nil {
		a.consumer.RegisterHandler(a.eventsHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.eventsHandler.Topic()))
	}

	// Start the live-rate stream when one is attached
	if a.polygonClient != nil {
		if stream := a.polygonClient.Stream(); stream != nil {
			go a.runStream(ctx, stream)
		}
	}

	// Start refresh scheduler
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// runStream connects the rate stream and restarts it on fatal errors.
func (a *App) runStream(ctx context.Context, stream *polygon.Stream) {
	if err := stream.Connect(ctx); err != nil {
		a.l.Warn("rate stream connect failed", applogger.Error(err))
		return
	}
	if err := stream.Subscribe(ctx); err != nil {
		a.l.Warn("rate stream subscribe failed", applogger.Error(err))
		return
	}
	errs := make(chan error, 1)
	go stream.Run(ctx, errs)
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			a.l.Warn("rate stream error", applogger.Error(err))
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			a.l.Warn("scheduler stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.workerQueue != nil {
		if err := a.workerQueue.Stop(shutdownCtx); err != nil {
			a.l.Warn("worker queue stop error", applogger.Error(err))
		}
	}

	if a.polygonClient != nil {
		if stream := a.polygonClient.Stream(); stream != nil {
			if err := stream.Close(); err != nil {
				a.l.Warn("rate stream close error", applogger.Error(err))
			}
		}
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.l.Warn("event publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
