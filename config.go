package pgqueue

import "time"

// Default limits applied when Config leaves the corresponding field zero.
const (
	defaultQueue       = "default"
	defaultMaxAttempts = 20
	defaultFetchLimit  = 100
	defaultSchema      = "public"
)

// Config holds process-wide queue settings. All fields are populated from
// environment variables for deployment convenience; zero values fall back to
// library defaults.
type Config struct {
	// NodeID identifies this process in the attempted_by column so operators
	// can tell which node claimed a job. Defaults to a random UUID generated
	// at client construction.
	NodeID string `env:"PGQUEUE_NODE_ID"`

	// Schema is the PostgreSQL schema holding the jobs table. It also salts
	// the advisory lock keyspace so two deployments sharing one database
	// never contend on each other's uniqueness locks.
	Schema string `env:"PGQUEUE_SCHEMA" envDefault:"public"`

	// Queue is the queue name used when an insert does not specify one.
	Queue string `env:"PGQUEUE_QUEUE" envDefault:"default"`

	// MaxAttempts is the default attempt ceiling for inserted jobs.
	MaxAttempts int16 `env:"PGQUEUE_MAX_ATTEMPTS" envDefault:"20"`

	// FetchLimit caps the batch size of a single fetch call. Requests above
	// the cap are clamped rather than rejected.
	FetchLimit int `env:"PGQUEUE_FETCH_LIMIT" envDefault:"100"`

	// RescueAfter is how long a job may sit in executing before RescueStuck
	// considers its node dead. Keep this comfortably above the longest
	// legitimate job runtime.
	RescueAfter time.Duration `env:"PGQUEUE_RESCUE_AFTER" envDefault:"1h"`

	// Retention is how long finalized jobs are kept before DeleteFinalized
	// prunes them.
	Retention time.Duration `env:"PGQUEUE_RETENTION" envDefault:"24h"`
}

// withDefaults returns a copy of cfg with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Schema == "" {
		c.Schema = defaultSchema
	}
	if c.Queue == "" {
		c.Queue = defaultQueue
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = defaultFetchLimit
	}
	if c.RescueAfter <= 0 {
		c.RescueAfter = time.Hour
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	return c
}
