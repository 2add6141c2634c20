package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zmy-farmer/queue-router/internal/api"
	"github.com/zmy-farmer/queue-router/internal/config"
	"github.com/zmy-farmer/queue-router/internal/consumer"
	"github.com/zmy-farmer/queue-router/internal/logging"
	"github.com/zmy-farmer/queue-router/internal/metrics"
	"github.com/zmy-farmer/queue-router/internal/mq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Configure logger
	logger, logCloser := logging.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("Starting Queue Router",
		"addr", cfg.Server.Addr(),
		"default_queue_type", cfg.Queue.DefaultType,
		"default_queue_name", cfg.Queue.DefaultName,
		"redis_enabled", cfg.Redis.URL != "",
		"rabbitmq_enabled", cfg.RabbitMQ.URL != "",
		"consumer_enabled", cfg.Consumer.Enabled,
		"archive_type", cfg.Consumer.ArchiveType,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factoryOpts := []mq.FactoryOption{
		mq.WithLogger(logger),
		mq.WithBufferSize(cfg.Queue.BufferSize),
		mq.WithExchange(cfg.RabbitMQ.Exchange),
	}

	// Networked backends are only wired when configured
	if cfg.Redis.URL != "" {
		client, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		factoryOpts = append(factoryOpts, mq.WithRedisClient(client))
		logger.Info("Redis backend enabled")
	}

	if cfg.RabbitMQ.URL != "" {
		broker, err := connectRabbitMQ(cfg.RabbitMQ, logger)
		if err != nil {
			logger.Error("Failed to initialize RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer broker.Close()

		factoryOpts = append(factoryOpts, mq.WithBrokerChannel(broker.channel))
		logger.Info("RabbitMQ backend enabled", "exchange", cfg.RabbitMQ.Exchange)
	}

	m := metrics.New()

	router, err := mq.NewRouter(mq.NewFactory(factoryOpts...),
		mq.WithRouterLogger(logger),
		mq.WithObserver(m),
	)
	if err != nil {
		logger.Error("Failed to create queue router", "error", err)
		os.Exit(1)
	}

	if err := router.SwitchQueueString(cfg.Queue.DefaultType, cfg.Queue.DefaultName); err != nil {
		logger.Error("Failed to select initial queue", "error", err)
		os.Exit(1)
	}

	archive, err := newArchive(cfg)
	if err != nil {
		logger.Error("Failed to initialize message archive", "error", err)
		os.Exit(1)
	}
	if closer, ok := archive.(archiveCloser); ok {
		defer closer.Close(context.Background())
	}

	worker := consumer.New(router, archive,
		consumer.WithLogger(logger),
		consumer.WithPollTimeout(cfg.Consumer.PollTimeout),
		consumer.WithRecorder(m),
	)
	if cfg.Consumer.Enabled {
		if err := worker.Start(ctx); err != nil {
			logger.Error("Failed to start consumer", "error", err)
			os.Exit(1)
		}
		defer worker.Stop()
	}

	apiRouter := api.NewRouter(api.Dependencies{
		Queue:    router,
		Consumer: worker,
		Archive:  archive,
		Metrics:  m,
		Logger:   logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      apiRouter.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case err := <-serverErrors:
		logger.Error("Server error", "error", err)
		os.Exit(1)

	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	// Give outstanding requests time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Queue Router stopped gracefully")
}
