package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mufasadev/lps-adaptor/pkg/util/repeat"
)

const (
	ClientTimeout = 5 * time.Second

	serializationFailure = "40001"
	deadlockDetected     = "40P01"

	// maxTxAttempts bounds the retries of a transaction that keeps losing serialization races.
	maxTxAttempts = 10
)

type Client interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

func NewClient(cfg *pgxpool.Config, maxConnAttempts int) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := repeat.Repeat(context.Background(), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, ClientTimeout)
		defer cancel()

		var err error
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}

		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			return err
		}

		return nil
	}, maxConnAttempts, ClientTimeout)

	if err != nil {
		return nil, err
	}

	return pool, nil
}

// InTx runs fn inside a transaction and commits it. The whole transaction is retried when Postgres
// aborts it with a serialization failure or a deadlock.
func InTx(ctx context.Context, db Client, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = runTx(ctx, db, opts, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}

func runTx(ctx context.Context, db Client, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return nil
}

// IsRetryable reports whether err is a serialization failure (SQLSTATE 40001) or deadlock (40P01).
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.SQLState() == serializationFailure || pgErr.SQLState() == deadlockDetected
}

// Migrate executes a schema script.
func Migrate(ctx context.Context, db Client, schema string) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
