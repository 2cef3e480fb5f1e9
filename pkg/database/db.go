package database

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"go.uber.org/zap"
)

// Config holds database connection details.
type Config struct {
	PrimaryDSN     string
	ReadDSNs       []string // Optional; if empty, use primary for reads.
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration // Total time spent retrying the first ping. Defaults to 30s.
}

// Querier is the statement surface shared by pgx.Tx and DB.
// Repositories accept it so the same query runs inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Ledger Store handle the engine depends on.
type Store interface {
	Querier
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

// DB provides read/write routing.
type DB struct {
	writer  *pgxpool.Pool
	readers []*pgxpool.Pool // fallback to writer if empty.
}

// New creates a DB with connection pools.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*DB, func(), error) {
	writer, err := newPool(ctx, logger, cfg.PrimaryDSN, cfg)
	if err != nil {
		return nil, nil, err
	}

	readers := make([]*pgxpool.Pool, 0)
	for _, dsn := range cfg.ReadDSNs {
		if utils.IsEmpty(dsn) {
			continue
		}
		reader, err := newPool(ctx, logger, dsn, cfg)
		if err != nil {
			writer.Close()
			for _, r := range readers {
				r.Close()
			}
			return nil, nil, err
		}
		readers = append(readers, reader)
		logger.Info("postgres_replica_pool_established")
	}
	if len(readers) == 0 {
		readers = []*pgxpool.Pool{writer}
	}

	closer := func() {
		for _, reader := range readers {
			if reader != writer {
				reader.Close()
			}
		}
		writer.Close()
		logger.Info("postgres_connection_pools_closed")
	}
	return &DB{writer: writer, readers: readers}, closer, nil
}

func newPool(ctx context.Context, logger *zap.Logger, dsn string, cfg Config) (*pgxpool.Pool, error) {
	dsn = fmt.Sprintf("postgres://%s", dsn)
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	config.MaxConns = cfg.MaxConns
	config.MinConns = cfg.MinConns
	config.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	// The database container may still be starting; retry the first ping.
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.ConnectTimeout
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = 30 * time.Second
	}
	ping := func() error {
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("postgres_ping_failed_retrying", zap.String("dsn", maskDSN(dsn)), zap.Error(err))
			return err
		}
		return nil
	}
	if err = backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Debug("postgres_connection_pool_established", zap.String("dsn", maskDSN(dsn)))
	return pool, nil
}

// maskDSN hides sensitive parts like passwords.
func maskDSN(dsn string) string {
	parts := strings.Split(dsn, "@")
	if len(parts) > 1 {
		auth := strings.Split(parts[0], "://")
		if len(auth) > 1 {
			userPass := strings.Split(auth[1], ":")
			if len(userPass) > 1 {
				return auth[0] + "://*****:*****@" + parts[len(parts)-1]
			}
		}
	}
	return dsn // Fallback
}

// WithTransaction runs fn in a transaction; auto-commits if no error, rolls back otherwise. Recovers panics.
// Rollback runs on a context detached from fn's deadline so a timed-out unit still releases its row locks.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = db.Rollback(context.WithoutCancel(ctx), tx)
			panic(p) // Re-throw
		} else if err != nil {
			_ = db.Rollback(context.WithoutCancel(ctx), tx)
		} else {
			err = db.Commit(ctx, tx)
		}
	}()
	err = fn(ctx, tx)
	return err
}

// Query routes to a random reader (replica if available).
func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.getReader().Query(ctx, sql, args...)
}

// QueryRow routes to a random reader.
func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.getReader().QueryRow(ctx, sql, args...)
}

// Exec routes to writer (primary).
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return db.writer.Exec(ctx, sql, args...)
}

// Begin routes to writer for transactions.
func (db *DB) Begin(ctx context.Context) (pgx.Tx, error) {
	return db.writer.Begin(ctx)
}

// Commit commits a transaction.
func (db *DB) Commit(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

// Rollback rolls back a transaction.
func (db *DB) Rollback(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// Ping checks the writer pool.
func (db *DB) Ping(ctx context.Context) error {
	return db.writer.Ping(ctx)
}

func (db *DB) getReader() *pgxpool.Pool {
	if len(db.readers) == 0 {
		return db.writer
	}
	return db.readers[rand.Intn(len(db.readers))]
}
