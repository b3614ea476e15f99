package pgqueue

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/pgqueue/migrations"
	"github.com/dmitrymomot/pgqueue/pkg/db"
)

// migrationsTable tracks applied queue migrations separately from any
// application-level migration history sharing the database.
const migrationsTable = "pgqueue_migrations"

// Migrate applies the queue's embedded schema migrations. It is safe to call
// on every startup; already-applied migrations are skipped.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	return db.Migrate(ctx, pool, migrations.FS, migrationsTable, log)
}
