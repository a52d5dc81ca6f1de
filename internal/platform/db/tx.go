package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx. Repositories accept it
// explicitly so callers decide whether a statement joins a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Transactor opens transaction scopes.
type Transactor interface {
	WithTx(ctx context.Context, fn func(DBTX) error) error
}

// PoolTransactor runs transactions against a pgx pool.
type PoolTransactor struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTransactor wraps pool. Imports run at ReadCommitted so a unique-key
// conflict with a concurrent import can be resolved by re-reading the winner.
func NewTransactor(pool *pgxpool.Pool) *PoolTransactor {
	return &PoolTransactor{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// WithTx implements Transactor.
func (t *PoolTransactor) WithTx(ctx context.Context, fn func(DBTX) error) error {
	return withTxOptions(ctx, t.pool, t.opts, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// Or returns q, or fallback when no transaction scope was supplied.
func Or(q DBTX, fallback DBTX) DBTX {
	if q != nil {
		return q
	}
	return fallback
}

// Savepoint runs fn inside a nested transaction when q is a pgx.Tx, so a failed
// statement rolls back to the savepoint and leaves the outer transaction usable.
// Any other scope runs fn directly.
func Savepoint(ctx context.Context, q DBTX, fn func(DBTX) error) error {
	tx, ok := q.(pgx.Tx)
	if !ok {
		return fn(q)
	}
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("platform/db: savepoint: %w", err)
	}
	if err := fn(sp); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: release savepoint: %w", err)
	}
	return nil
}

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return withTxOptions(ctx, pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, fn)
}

func withTxOptions(ctx context.Context, pool *pgxpool.Pool, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique_violation,
// optionally restricted to a constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsNoRows reports whether err signals an empty result.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
