package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SimTape/internal/jobs"
	"SimTape/internal/usecase"
	pkgch "SimTape/pkg/clickhouse"
	"SimTape/pkg/config"
	xhttp "SimTape/pkg/http"
	pkgkafka "SimTape/pkg/kafka"
	applogger "SimTape/pkg/logger"
	"SimTape/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	collector   *usecase.CandleCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	rotation    *queue.RedisQueue
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	CandleProc  *usecase.CandleProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	rotation *queue.RedisQueue,
) *App {
	return &App{
		cfg:       cfg,
		log:       lgr,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		rotation:  rotation,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector (simulated stream -> pipeline -> backend)
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	symbols := make([]string, 0, len(a.cfg.Simulation.Symbols))
	for _, s := range a.cfg.Simulation.Symbols {
		symbols = append(symbols, s.Symbol)
	}
	l.Info("collector started", applogger.Strings("symbols", symbols))

	// Start consumer if configured (the kafka backend reads its own topic
	// back into ClickHouse)
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start the scenario rotation queue when redis is available
	if a.rotation != nil {
		if err := a.rotation.Start(); err != nil {
			l.Warn("rotation queue start error", applogger.Error(err))
		} else {
			a.rotation.StartRetryProcessor()
			if a.cfg.Simulation.RotateInterval > 0 && len(a.cfg.Simulation.RotatePresets) > 0 {
				go a.rotateLoop(ctx, l)
				l.Info("scenario rotation enabled",
					applogger.Duration("interval", a.cfg.Simulation.RotateInterval),
					applogger.Strings("presets", a.cfg.Simulation.RotatePresets))
			}
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// rotateLoop publishes the next preset on a fixed cadence, cycling the
// configured list.
func (a *App) rotateLoop(ctx context.Context, l *applogger.Logger) {
	ticker := time.NewTicker(a.cfg.Simulation.RotateInterval)
	defer ticker.Stop()
	idx := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			preset := a.cfg.Simulation.RotatePresets[idx%len(a.cfg.Simulation.RotatePresets)]
			idx++
			payload := jobs.RotateScenarioPayload{Preset: preset}
			if err := a.rotation.PublishMessage(ctx, "scenario.rotate", payload); err != nil {
				l.Warn("rotation enqueue error", applogger.Error(err))
			}
		}
	}
}

func (a *App) logger() *applogger.Logger {
	if a.log != nil {
		return a.log
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
	}
	return l
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger()
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop rotation queue
	if a.rotation != nil {
		if err := a.rotation.Stop(shutdownCtx); err != nil {
			l.Warn("rotation queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Close candle processor resources (publisher/storage)
	if a.CandleProc != nil {
		a.CandleProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
