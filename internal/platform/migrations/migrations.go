// Package migrations applies the embedded catalog schema.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var embedded embed.FS

// Source returns the schema files as a filesystem rooted at the migration directory.
func Source() (fs.FS, error) {
	return fs.Sub(embedded, "sql")
}

// Up applies every pending migration against pool.
func Up(pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("migrations: pool is required")
	}

	sub, err := Source()
	if err != nil {
		return fmt.Errorf("migrations: open source: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("migrations: create source: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	driver, err := pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{MigrationsTable: "catalog_schema_migrations"})
	if err != nil {
		return fmt.Errorf("migrations: create driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("migrations: create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: apply: %w", err)
	}
	return nil
}
