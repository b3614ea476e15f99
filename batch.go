package pgqueue

import (
	"context"
	"time"
)

// BatchJob describes one job in a bulk insert.
type BatchJob struct {
	Worker string
	Args   any
	Opts   []InsertOption
}

// InsertMany bulk-inserts jobs in one statement with an ignore-on-conflict
// policy. Only rows actually inserted are returned; conflicted rows are
// silently dropped from the result. Uniqueness options are not supported on
// the bulk path; use Insert with the Unique option instead.
func (c *Client) InsertMany(ctx context.Context, jobs []BatchJob) ([]*Job, error) {
	return c.InsertManyTx(ctx, c.pool, jobs)
}

// InsertManyTx is InsertMany bound to an existing transaction.
func (c *Client) InsertManyTx(ctx context.Context, q querier, jobs []BatchJob) ([]*Job, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	var (
		queues       = make([]string, len(jobs))
		workers      = make([]string, len(jobs))
		priorities   = make([]int16, len(jobs))
		args         = make([]string, len(jobs))
		maxAttempts  = make([]int16, len(jobs))
		scheduledAts = make([]time.Time, len(jobs))
		states       = make([]string, len(jobs))
	)
	for i, bj := range jobs {
		candidate, _, err := c.buildCandidate(bj.Worker, bj.Args, bj.Opts...)
		if err != nil {
			return nil, err
		}
		queues[i] = candidate.Queue
		workers[i] = candidate.Worker
		priorities[i] = candidate.Priority
		args[i] = string(candidate.Args)
		maxAttempts[i] = candidate.MaxAttempts
		scheduledAts[i] = candidate.ScheduledAt
		states[i] = string(candidate.State)
	}

	rows, err := q.Query(ctx, `
		INSERT INTO `+c.table+` (queue, worker, priority, args, max_attempts, scheduled_at, state)
		SELECT *
		FROM unnest(
			$1::text[], $2::text[], $3::smallint[], $4::jsonb[],
			$5::smallint[], $6::timestamptz[], $7::text[]::`+c.stateType+`[]
		)
		ON CONFLICT DO NOTHING
		RETURNING `+jobColumns,
		queues, workers, priorities, args, maxAttempts, scheduledAts, states,
	)
	if err != nil {
		return nil, err
	}

	inserted, err := collectJobs(rows)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "bulk insert",
		"requested", len(jobs), "inserted", len(inserted))
	return inserted, nil
}
