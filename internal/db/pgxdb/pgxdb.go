// Package pgxdb owns the single Postgres pool backing the relational
// index and the transaction-scope helpers every repository builds on.
package pgxdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/config"
	"github.com/turahe/mediacore/pkg/logger"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// Open lazily creates the process-wide pool from cfg. Safe to call
// repeatedly; only the first call takes effect.
func Open(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		pgxCfg, err := pgxpool.ParseConfig(cfg.DSN())
		if err != nil {
			poolErr = fmt.Errorf("pgxdb: parse config: %w", err)
			return
		}
		pgxCfg.MinConns = cfg.MinConnections
		pgxCfg.MaxConns = cfg.MaxConnections

		p, err := pgxpool.NewWithConfig(ctx, pgxCfg)
		if err != nil {
			poolErr = fmt.Errorf("pgxdb: new pool: %w", err)
			return
		}
		pool = p
		if logger.Log != nil {
			logger.Log.Info("postgres pool opened",
				zap.Int32("min_conns", cfg.MinConnections),
				zap.Int32("max_conns", cfg.MaxConnections),
			)
		}
	})
	return pool, poolErr
}

// Pool returns the already-open pool, panicking if Open has not succeeded.
func Pool() *pgxpool.Pool {
	if pool == nil {
		panic("pgxdb: Pool called before a successful Open")
	}
	return pool
}

// Close releases the pool. Intended for orderly shutdown only.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// DbConnection wraps a single pooled connection plus the transaction, if
// any, currently open on it. Repository methods take a *DbConnection so
// call sites can choose whether their writes participate in a shared
// transaction.
type DbConnection struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

// Acquire checks out a connection from the pool for the lifetime of the
// returned DbConnection. Callers must call Release when done.
func Acquire(ctx context.Context) (*DbConnection, error) {
	conn, err := Pool().Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgxdb: acquire: %w", err)
	}
	return &DbConnection{conn: conn}, nil
}

// Release returns the underlying connection to the pool. Any transaction
// left open by a caller who forgot to commit or rollback is rolled back.
func (c *DbConnection) Release() {
	if c.tx != nil {
		_ = c.tx.Rollback(context.Background())
		c.tx = nil
	}
	c.conn.Release()
}

// Query runs a query against the open transaction if one exists, or
// directly against the connection otherwise.
func (c *DbConnection) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if c.tx != nil {
		return c.tx.Query(ctx, sql, args...)
	}
	return c.conn.Query(ctx, sql, args...)
}

func (c *DbConnection) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if c.tx != nil {
		return c.tx.QueryRow(ctx, sql, args...)
	}
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *DbConnection) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if c.tx != nil {
		return c.tx.Exec(ctx, sql, args...)
	}
	return c.conn.Exec(ctx, sql, args...)
}

func (c *DbConnection) sendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	if c.tx != nil {
		return c.tx.SendBatch(ctx, batch)
	}
	return c.conn.SendBatch(ctx, batch)
}

// Isolated runs fn inside a transaction at the given isolation level,
// committing on success and rolling back on any returned error. It is the
// building block every multi-statement domain operation (move, delete,
// recalculate-media-presence) is expressed in terms of.
func (c *DbConnection) Isolated(ctx context.Context, level pgx.TxIsoLevel, fn func(ctx context.Context, tx *DbConnection) error) error {
	tx, err := c.conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: level})
	if err != nil {
		return fmt.Errorf("pgxdb: begin: %w", err)
	}

	scoped := &DbConnection{conn: c.conn, tx: tx}
	if err := fn(ctx, scoped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && logger.Log != nil {
			logger.Log.Warn("pgxdb: rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgxdb: commit: %w", err)
	}
	return nil
}

// ReadCommitted and Serializable are the two isolation levels domain code
// asks for: ReadCommitted for ordinary CRUD, Serializable where
// concurrent catalog edits must not interleave (relation-view rebuilds).
const (
	ReadCommitted = pgx.ReadCommitted
	Serializable  = pgx.Serializable
)
