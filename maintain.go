package pgqueue

import (
	"context"
	"time"
)

// StageReady promotes scheduled and retryable jobs whose scheduled_at has
// passed to available, in one statement, and returns how many rows moved.
// Run it periodically from whatever supervises the queue; concurrent callers
// are harmless since the guard makes the promotion idempotent.
func (c *Client) StageReady(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `
		UPDATE `+c.table+` SET state = 'available'::`+c.stateType+`
		WHERE state IN ('scheduled'::`+c.stateType+`, 'retryable'::`+c.stateType+`)
		  AND scheduled_at <= now()`,
	)
	if err != nil {
		return 0, err
	}
	if n := tag.RowsAffected(); n > 0 {
		c.logger.DebugContext(ctx, "staged jobs", "count", n)
		return n, nil
	}
	return 0, nil
}

// RescueStuck recovers jobs abandoned in executing, typically because their
// node died mid-run. Jobs attempted before the configured RescueAfter cutoff
// go back to retryable, or straight to discarded when their attempts are
// already exhausted. Returns the number of rows rescued.
func (c *Client) RescueStuck(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-c.cfg.RescueAfter)
	tag, err := c.pool.Exec(ctx, `
		UPDATE `+c.table+` SET
			state = CASE WHEN attempt >= max_attempts
				THEN 'discarded'::`+c.stateType+`
				ELSE 'retryable'::`+c.stateType+` END,
			discarded_at = CASE WHEN attempt >= max_attempts
				THEN now()
				ELSE discarded_at END
		WHERE state = 'executing'::`+c.stateType+`
		  AND attempted_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()
	if n > 0 {
		c.logger.WarnContext(ctx, "rescued stuck jobs", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// DeleteFinalized prunes terminal jobs whose finalization is older than the
// configured retention window and returns the number of rows removed.
func (c *Client) DeleteFinalized(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-c.cfg.Retention)
	tag, err := c.pool.Exec(ctx, `
		DELETE FROM `+c.table+`
		WHERE (state = 'completed'::`+c.stateType+` AND completed_at < $1)
		   OR (state = 'cancelled'::`+c.stateType+` AND cancelled_at < $1)
		   OR (state = 'discarded'::`+c.stateType+` AND discarded_at < $1)`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()
	if n > 0 {
		c.logger.DebugContext(ctx, "pruned finalized jobs", "count", n)
	}
	return n, nil
}
