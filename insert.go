package pgqueue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/pgqueue/pkg/db"
)

// insertConfig holds options for a single job insert.
type insertConfig struct {
	scheduledAt *time.Time
	queue       string
	unique      *UniqueOpts
	maxAttempts int16
	priority    int16
}

// InsertOption configures a job insert.
type InsertOption func(*insertConfig)

// InQueue places the job on the named queue instead of the default one.
func InQueue(name string) InsertOption {
	return func(c *insertConfig) {
		if name != "" {
			c.queue = name
		}
	}
}

// WithPriority sets the job priority. Lower values are worked first.
func WithPriority(p int16) InsertOption {
	return func(c *insertConfig) {
		c.priority = p
	}
}

// WithMaxAttempts sets the attempt ceiling for this job, overriding the
// client default.
func WithMaxAttempts(n int16) InsertOption {
	return func(c *insertConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// ScheduledAt delays the job until a specific time. The job is inserted in
// the scheduled state and becomes available once staged after that instant.
func ScheduledAt(t time.Time) InsertOption {
	return func(c *insertConfig) {
		c.scheduledAt = &t
	}
}

// ScheduledIn delays the job by a duration from now.
func ScheduledIn(d time.Duration) InsertOption {
	return func(c *insertConfig) {
		t := time.Now().Add(d)
		c.scheduledAt = &t
	}
}

// Unique attaches uniqueness constraints to the insert. See UniqueOpts.
func Unique(opts UniqueOpts) InsertOption {
	return func(c *insertConfig) {
		c.unique = &opts
	}
}

// buildCandidate validates worker and args and assembles the candidate job
// that an insert would persist. The returned config keeps the uniqueness
// constraints, which are consumed by the resolver and never stored.
func (c *Client) buildCandidate(worker string, args any, opts ...InsertOption) (*Job, *insertConfig, error) {
	if worker == "" {
		return nil, nil, ErrWorkerRequired
	}

	encoded := json.RawMessage(`{}`)
	if args != nil {
		var err error
		encoded, err = json.Marshal(args)
		if err != nil {
			return nil, nil, errors.Join(ErrInvalidArgs, err)
		}
	}

	cfg := &insertConfig{
		queue:       c.cfg.Queue,
		maxAttempts: c.cfg.MaxAttempts,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	now := time.Now().UTC()
	scheduledAt := now
	state := JobStateAvailable
	if cfg.scheduledAt != nil {
		scheduledAt = cfg.scheduledAt.UTC()
		if scheduledAt.After(now) {
			state = JobStateScheduled
		}
	}

	return &Job{
		State:       state,
		Queue:       cfg.queue,
		Worker:      worker,
		Priority:    cfg.priority,
		Args:        encoded,
		MaxAttempts: cfg.maxAttempts,
		InsertedAt:  now,
		ScheduledAt: scheduledAt,
	}, cfg, nil
}

// Insert enqueues one job. When the Unique option is present the insert goes
// through the uniqueness resolver inside a single transaction; otherwise it
// is a plain conflict-ignoring insert.
func (c *Client) Insert(ctx context.Context, worker string, args any, opts ...InsertOption) (*Job, error) {
	candidate, cfg, err := c.buildCandidate(worker, args, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.unique == nil {
		return c.insert(ctx, c.pool, candidate)
	}

	var job *Job
	err = db.WithTx(ctx, c.pool, func(tx pgx.Tx) error {
		var txErr error
		job, txErr = c.insertUnique(ctx, tx, candidate, *cfg.unique)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// InsertTx is Insert bound to an existing transaction. The whole decision
// procedure, advisory lock included, runs on tx; the job becomes visible
// only when tx commits.
func (c *Client) InsertTx(ctx context.Context, tx pgx.Tx, worker string, args any, opts ...InsertOption) (*Job, error) {
	candidate, cfg, err := c.buildCandidate(worker, args, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.unique == nil {
		return c.insert(ctx, tx, candidate)
	}
	return c.insertUnique(ctx, tx, candidate, *cfg.unique)
}

// insert persists candidate with an ignore-on-conflict policy. When the row
// conflicts on the primary key the candidate is returned as-is, unpersisted
// (ID == 0), mirroring the behavior of the uniqueness paths.
func (c *Client) insert(ctx context.Context, q querier, candidate *Job) (*Job, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO `+c.table+` (queue, worker, priority, args, max_attempts, scheduled_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7::`+c.stateType+`)
		ON CONFLICT DO NOTHING
		RETURNING `+jobColumns,
		candidate.Queue,
		candidate.Worker,
		candidate.Priority,
		candidate.Args,
		candidate.MaxAttempts,
		candidate.ScheduledAt,
		candidate.State,
	)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return candidate, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}
