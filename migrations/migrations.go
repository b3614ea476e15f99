// Package migrations embeds the queue's schema migrations. Apply them with
// [github.com/dmitrymomot/pgqueue/pkg/db.Migrate] or the pgqueue.Migrate
// convenience wrapper.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
