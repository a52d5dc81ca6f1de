package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tonica-music/catalog/internal/app"
	jobmetrics "github.com/tonica-music/catalog/internal/jobs"
	"github.com/tonica-music/catalog/internal/observability"
	"github.com/tonica-music/catalog/internal/platform/cache"
	"github.com/tonica-music/catalog/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With("process", "worker")

	pool, err := app.OpenPool(ctx, cfg)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.AIRateBackend == "redis" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	core, err := app.BuildCore(ctx, cfg, logger, pool, redisClient, metrics.Registerer())
	if err != nil {
		logger.Error("build services", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := core.Close(); err != nil {
			logger.Warn("close services", slog.Any("error", err))
		}
	}()

	importJob := jobs.NewImportNFEJob(core.Importer, logger, jobmetrics.NewMetrics(metrics.Registerer()))

	queueOpt, err := jobs.RedisOpt(cfg.RedisAddr)
	if err != nil {
		logger.Error("queue options", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   queueOpt,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskImportNFE, Handler: importJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
