package pgqueue

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"
)

// FetchJobs atomically claims up to limit available jobs from the named
// queue, transitioning them to executing and stamping attempted_at,
// attempted_by and the incremented attempt counter. Claimed jobs come back in
// (priority, scheduled_at, id) order.
//
// The selection skips rows locked by concurrent fetchers instead of waiting
// on them, so two callers never claim the same row and neither blocks the
// other. An empty result is normal: it means no eligible jobs, or every
// eligible row was momentarily locked elsewhere. Ordering is a best-effort
// preference, not a global FIFO: a skipped row may be claimed by another
// caller out of nominal order.
func (c *Client) FetchJobs(ctx context.Context, queue string, limit int) ([]*Job, error) {
	// The claim is a single statement: the locking subselect and the update
	// run against one snapshot, so no separate guard on state is needed
	// between selection and update.
	return c.FetchJobsTx(ctx, c.pool, queue, limit)
}

// FetchJobsTx is FetchJobs bound to an existing transaction or connection.
// Row locks taken by the subselect are held until that transaction ends.
func (c *Client) FetchJobsTx(ctx context.Context, q querier, queue string, limit int) ([]*Job, error) {
	if queue == "" {
		queue = c.cfg.Queue
	}
	if limit <= 0 || limit > c.cfg.FetchLimit {
		limit = c.cfg.FetchLimit
	}

	// A fresh nonce per fetch lets operators distinguish two claims by the
	// same node in the attempted_by triple.
	nonce := uuid.New().String()

	rows, err := q.Query(ctx, `
		UPDATE `+c.table+` SET
			state = 'executing'::`+c.stateType+`,
			attempted_at = now(),
			attempted_by = ARRAY[$2, $1, $3],
			attempt = attempt + 1
		WHERE id IN (
			SELECT id FROM `+c.table+`
			WHERE state = 'available'::`+c.stateType+` AND queue = $1
			ORDER BY priority ASC, scheduled_at ASC, id ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		queue, c.cfg.NodeID, nonce, limit,
	)
	if err != nil {
		return nil, err
	}

	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, err
	}
	// UPDATE ... RETURNING does not preserve the subselect's order.
	slices.SortFunc(jobs, func(a, b *Job) int {
		if a.Priority != b.Priority {
			return int(a.Priority) - int(b.Priority)
		}
		if !a.ScheduledAt.Equal(b.ScheduledAt) {
			return a.ScheduledAt.Compare(b.ScheduledAt)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(jobs) > 0 {
		c.logger.DebugContext(ctx, "claimed jobs",
			"queue", queue, "count", len(jobs), "nonce", nonce)
	}
	return jobs, nil
}
