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

	"github.com/hibiken/asynq"

	"github.com/tonica-music/catalog/cmd/catalog/cli"
	"github.com/tonica-music/catalog/internal/app"
	audithttp "github.com/tonica-music/catalog/internal/audit/http"
	"github.com/tonica-music/catalog/internal/auth"
	"github.com/tonica-music/catalog/internal/importer"
	jobmetrics "github.com/tonica-music/catalog/internal/jobs"
	"github.com/tonica-music/catalog/internal/masterdata/categories"
	"github.com/tonica-music/catalog/internal/masterdata/products"
	"github.com/tonica-music/catalog/internal/masterdata/suppliers"
	"github.com/tonica-music/catalog/internal/observability"
	"github.com/tonica-music/catalog/internal/platform/cache"
	"github.com/tonica-music/catalog/internal/platform/migrations"
	"github.com/tonica-music/catalog/internal/rbac"
	"github.com/tonica-music/catalog/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(cli.RunJobs(ctx, os.Args[2:], os.Getenv("REDIS_ADDR"), os.Stdout, os.Stderr))
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := app.OpenPool(ctx, cfg)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.DBAutoMigrate {
		if err := migrations.Up(dbpool); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	core, err := app.BuildCore(ctx, cfg, logger, dbpool, redisClient, metrics.Registerer())
	if err != nil {
		logger.Error("build services", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := core.Close(); err != nil {
			logger.Warn("close services", slog.Any("error", err))
		}
	}()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("init tokens", slog.Any("error", err))
		os.Exit(1)
	}

	queueOpt, err := jobs.RedisOpt(cfg.RedisAddr)
	if err != nil {
		logger.Error("queue options", slog.Any("error", err))
		os.Exit(1)
	}
	jobsClient, err := jobs.NewClient(queueOpt)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(queueOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("jobs inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		Auth:              auth.Middleware(tokens, logger),
		RBAC:              &rbac.Middleware{Policy: rbac.DefaultPolicy(), Logger: logger},
		SuppliersHandler:  suppliers.NewHandler(logger, core.Suppliers),
		CategoriesHandler: categories.NewHandler(logger, core.Categories),
		ProductsHandler:   products.NewHandler(logger, core.Products),
		AuditHandler:      audithttp.NewHandler(logger, core.Audit),
		ImportHandler:     importer.NewHandler(logger, core.Importer, jobsClient),
		JobHandler:        jobs.NewHandler(inspector, logger).WithMetrics(jobmetrics.NewMetrics(metrics.Registerer())),
		AI:                core.Gateway,
		Database:          dbpool,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("catalog service listening", slog.String("addr", cfg.AppAddr), slog.String("model", cfg.GeminiModel))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	logger.Info("catalog service stopped")
}
