// Package database owns the pgx connection pool: construction, bounded
// connection acquisition and schema migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/userauth/internal/domain/auth"
	apperrors "github.com/yanqian/userauth/pkg/errors"
)

// Config contains DSN and pooling settings.
type Config struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	AcquireTimeout time.Duration
}

// Pool wraps pgxpool.Pool and bounds how long a caller waits for a free
// connection. A wait that exceeds AcquireTimeout fails with
// auth.ErrPoolExhausted instead of blocking indefinitely.
type Pool struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	logger         *slog.Logger
}

// Open parses the DSN, applies the pool limits and verifies connectivity.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, apperrors.Wrap(auth.CodeConfig, "invalid database dsn", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperrors.Wrap(auth.CodePersistence, "failed to initialize postgres pool", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(auth.CodePersistence, "postgres ping failed", err)
	}
	logger.Info("postgres pool ready", "max_conns", poolConfig.MaxConns, "acquire_timeout", cfg.AcquireTimeout.String())
	return New(pool, cfg.AcquireTimeout, logger), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, acquireTimeout time.Duration, logger *slog.Logger) *Pool {
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	return &Pool{pool: pool, acquireTimeout: acquireTimeout, logger: logger.With("component", "database.pool")}
}

// QueryRow acquires a connection within the acquire timeout and runs one
// query on it. The connection is released once the row is scanned.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	conn, err := p.acquire(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return &releasingRow{row: conn.QueryRow(ctx, sql, args...), release: conn.Release}
}

// Pgx exposes the underlying pool for migrations and health checks.
func (p *Pool) Pgx() *pgxpool.Pool {
	return p.pool
}

// Close releases every pooled connection.
func (p *Pool) Close() {
	p.pool.Close()
}

func (p *Pool) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()
	conn, err := p.pool.Acquire(acquireCtx)
	if err == nil {
		return conn, nil
	}
	if ctx.Err() != nil || !errors.Is(acquireCtx.Err(), context.DeadlineExceeded) {
		return nil, err
	}
	// Only a wait on a full pool is exhaustion. A connect still in
	// progress at the deadline means the database is slow or unreachable.
	stat := p.pool.Stat()
	if stat.AcquiredConns() < stat.MaxConns() {
		return nil, fmt.Errorf("connect to database within %s: %w", p.acquireTimeout, err)
	}
	p.logger.Warn("connection pool exhausted",
		"acquired", stat.AcquiredConns(),
		"max", stat.MaxConns(),
		"wait", p.acquireTimeout.String())
	return nil, apperrors.Wrap(auth.CodePoolExhausted, auth.ErrPoolExhausted.Message, fmt.Errorf("no connection within %s: %w", p.acquireTimeout, err))
}

type releasingRow struct {
	row     pgx.Row
	release func()
}

func (r *releasingRow) Scan(dest ...any) error {
	defer r.release()
	return r.row.Scan(dest...)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
