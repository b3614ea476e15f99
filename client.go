package pgqueue

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/pgqueue/pkg/logger"
)

// querier is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
// Internal operations are written against it so every public method can offer
// a Tx variant that rebinds to a live transactional connection.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client is the entry point to the queue's persistence operations. All
// mutual exclusion is delegated to PostgreSQL (row locks, advisory locks);
// the client itself holds no cross-call state besides the pool.
type Client struct {
	pool      *pgxpool.Pool
	cfg       Config
	logger    *slog.Logger
	table     string
	stateType string
	lockSalt  int64
}

// Option configures the client.
type Option func(*clientConfig)

type clientConfig struct {
	cfg    Config
	logger *slog.Logger
}

// WithConfig replaces the whole queue configuration. Zero fields still fall
// back to library defaults.
func WithConfig(cfg Config) Option {
	return func(c *clientConfig) {
		c.cfg = cfg
	}
}

// WithNodeID sets the node identity recorded in attempted_by.
func WithNodeID(id string) Option {
	return func(c *clientConfig) {
		if id != "" {
			c.cfg.NodeID = id
		}
	}
}

// WithSchema sets the PostgreSQL schema holding the jobs table.
func WithSchema(schema string) Option {
	return func(c *clientConfig) {
		if schema != "" {
			c.cfg.Schema = schema
		}
	}
}

// WithDefaultQueue sets the queue used when an insert does not name one.
func WithDefaultQueue(queue string) Option {
	return func(c *clientConfig) {
		if queue != "" {
			c.cfg.Queue = queue
		}
	}
}

// WithLogger sets the logger. If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a queue client backed by pool.
func New(pool *pgxpool.Pool, opts ...Option) (*Client, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cc := &clientConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	cfg := cc.cfg.withDefaults()
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.New().String()
	}

	log := cc.logger
	if log == nil {
		log = logger.NewNope()
	}

	return &Client{
		pool:      pool,
		cfg:       cfg,
		logger:    log,
		table:     pgx.Identifier{cfg.Schema, "jobs"}.Sanitize(),
		stateType: pgx.Identifier{cfg.Schema, "job_state"}.Sanitize(),
		lockSalt:  namespaceSalt(cfg.Schema),
	}, nil
}

// Config returns the effective configuration after defaults were applied.
func (c *Client) Config() Config { return c.cfg }

// Get returns the job with the given id, or pgx.ErrNoRows when absent.
func (c *Client) Get(ctx context.Context, id int64) (*Job, error) {
	return c.GetTx(ctx, c.pool, id)
}

// GetTx is Get bound to an existing transaction or connection.
func (c *Client) GetTx(ctx context.Context, q querier, id int64) (*Job, error) {
	row := q.QueryRow(ctx, `SELECT `+jobColumns+` FROM `+c.table+` WHERE id = $1`, id)
	return scanJob(row)
}
