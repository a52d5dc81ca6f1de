package app

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tonica-music/catalog/internal/platform/db"
)

const testModeEnv = "CATALOG_TEST_MODE"

// InTestMode reports whether CATALOG_TEST_MODE=1. The binaries return before
// dialing Postgres, Redis or Gemini when it is set.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}

// OpenPool connects to Postgres with the configured pool limits.
func OpenPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	return db.New(ctx, cfg.PGDSN, db.PoolOptions{
		MaxConns:        cfg.PGMaxConns,
		MaxConnLifetime: cfg.PGMaxConnLifetime,
	})
}
