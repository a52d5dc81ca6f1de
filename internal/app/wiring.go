package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tonica-music/catalog/internal/ai"
	"github.com/tonica-music/catalog/internal/audit"
	"github.com/tonica-music/catalog/internal/importer"
	"github.com/tonica-music/catalog/internal/masterdata/categories"
	"github.com/tonica-music/catalog/internal/masterdata/products"
	"github.com/tonica-music/catalog/internal/masterdata/suppliers"
	"github.com/tonica-music/catalog/internal/platform/cache"
	"github.com/tonica-music/catalog/internal/platform/db"
)

const categoryTreeTTL = 10 * time.Minute

// governorKey is shared by every process so the provider quota is global.
const governorKey = "catalog:ai:governor"

// Core holds the services shared by the HTTP server and the worker.
type Core struct {
	Gateway    *ai.Gateway
	Provider   *ai.GeminiProvider
	Audit      *audit.Service
	Suppliers  *suppliers.Service
	Categories *categories.Service
	Products   *products.Service
	Importer   *importer.Service
}

// BuildCore wires the AI gateway, the resolvers and the import pipeline.
// redisClient is only required when the redis governor backend is selected.
func BuildCore(ctx context.Context, cfg *Config, logger *slog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, registerer prometheus.Registerer) (*Core, error) {
	aiCfg := cfg.AI()
	provider, err := ai.NewGeminiProvider(ctx, aiCfg.APIKey)
	if err != nil {
		return nil, err
	}
	limiter, err := NewLimiter(cfg, redisClient)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}
	gateway, err := ai.NewGateway(aiCfg, provider, limiter, logger.With("component", "ai"), ai.NewMetrics(registerer))
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	auditService := audit.NewService(audit.NewRepository(pool))
	supplierService := suppliers.NewService(suppliers.NewRepository(pool), logger.With("component", "suppliers"))
	categoryService := categories.NewService(categories.NewRepository(pool), logger.With("component", "categories")).
		WithCache(cache.NewVersioned(redisClient, "catalog:categories", categoryTreeTTL))
	productService := products.NewService(products.NewRepository(pool), auditService, logger.With("component", "products"))

	importService := importer.NewService(importer.Deps{
		Assistant:  ai.NewAssistant(gateway),
		Tx:         db.NewTransactor(pool),
		Suppliers:  supplierService,
		Categories: categoryService,
		Products:   productService,
		Logger:     logger.With("component", "importer"),
		Metrics:    importer.NewMetrics(registerer),
	})

	return &Core{
		Gateway:    gateway,
		Provider:   provider,
		Audit:      auditService,
		Suppliers:  supplierService,
		Categories: categoryService,
		Products:   productService,
		Importer:   importService,
	}, nil
}

// NewLimiter selects the request governor backend.
func NewLimiter(cfg *Config, redisClient *redis.Client) (ai.Limiter, error) {
	switch cfg.AIRateBackend {
	case "", "memory":
		return ai.NewSlidingWindow(cfg.AIRequestsPerMinute, cfg.AIRateWindow), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis governor selected without a redis client")
		}
		return ai.NewRedisWindow(redisClient, governorKey, cfg.AIRequestsPerMinute, cfg.AIRateWindow), nil
	default:
		return nil, fmt.Errorf("unknown AI_RATE_BACKEND %q", cfg.AIRateBackend)
	}
}

// Close releases the provider client.
func (c *Core) Close() error {
	if c == nil || c.Provider == nil {
		return nil
	}
	return c.Provider.Close()
}
