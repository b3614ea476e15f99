// Package db provides the PostgreSQL infrastructure underneath the queue:
// connection pooling, transactions, health checks and schema migrations.
//
// This package wraps [github.com/jackc/pgx/v5/pgxpool] with retry logic and
// production defaults, and applies embedded migrations with
// [github.com/pressly/goose/v3].
//
// # Configuration
//
// All settings are loaded from environment variables:
//
//	PGQUEUE_DATABASE_URL                 - PostgreSQL connection URL (required)
//	PGQUEUE_DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	PGQUEUE_DATABASE_MIN_CONNS          - Minimum idle connections (default: 2)
//	PGQUEUE_DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	PGQUEUE_DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	PGQUEUE_DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	PGQUEUE_DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	PGQUEUE_DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pgqueue.Migrate(ctx, pool, logger); err != nil {
//		log.Fatal(err)
//	}
//
// # Transactions
//
// [WithTx] provides automatic transaction management with rollback on error
// or panic:
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		return tx.QueryRow(ctx, "SELECT 1").Scan(&result)
//	})
//
// # Error Handling
//
// Sentinel errors ([ErrFailedToParseDBConfig], [ErrFailedToOpenDBConnection],
// [ErrHealthcheckFailed], [ErrSetDialect], [ErrApplyMigrations]) are combined
// with their causes via [errors.Join].
package db
