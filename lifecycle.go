package pgqueue

import (
	"context"
	"encoding/json"
	"time"
)

// Every transition below is a single conditional UPDATE: the guard predicate
// and the column changes travel in one round trip, so concurrent callers
// racing on the same row are serialized by the row lock alone. A guard that
// no longer matches makes the statement a silent no-op; callers must not
// assume their in-memory view of the row is still current.

// Complete marks an executing job as completed.
func (c *Client) Complete(ctx context.Context, job *Job) error {
	return c.CompleteTx(ctx, c.pool, job)
}

// CompleteTx is Complete bound to an existing transaction.
func (c *Client) CompleteTx(ctx context.Context, q querier, job *Job) error {
	_, err := q.Exec(ctx, `
		UPDATE `+c.table+` SET
			state = 'completed'::`+c.stateType+`,
			completed_at = now()
		WHERE id = $1 AND state = 'executing'::`+c.stateType,
		job.ID,
	)
	return err
}

// Error records a failed attempt. When the job's attempts are exhausted it is
// discarded; otherwise it becomes retryable, eligible again after backoff.
// Either way one entry is appended to the job's error history, atomically
// with the transition. execErr must already carry the fully rendered failure
// (message plus stack, if the caller captured one).
func (c *Client) Error(ctx context.Context, job *Job, execErr error, backoff time.Duration) error {
	return c.ErrorTx(ctx, c.pool, job, execErr, backoff)
}

// ErrorTx is Error bound to an existing transaction.
func (c *Client) ErrorTx(ctx context.Context, q querier, job *Job, execErr error, backoff time.Duration) error {
	entry, err := errorEntry(job, execErr)
	if err != nil {
		return err
	}

	if job.Attempt >= job.MaxAttempts {
		_, err = q.Exec(ctx, `
			UPDATE `+c.table+` SET
				state = 'discarded'::`+c.stateType+`,
				discarded_at = now(),
				errors = errors || $2::jsonb
			WHERE id = $1 AND state = 'executing'::`+c.stateType,
			job.ID, entry,
		)
		return err
	}

	_, err = q.Exec(ctx, `
		UPDATE `+c.table+` SET
			state = 'retryable'::`+c.stateType+`,
			scheduled_at = $3,
			errors = errors || $2::jsonb
		WHERE id = $1 AND state = 'executing'::`+c.stateType,
		job.ID, entry, time.Now().UTC().Add(backoff),
	)
	return err
}

// Discard moves a job to discarded regardless of its attempt count,
// appending the failure to the error history like Error does.
func (c *Client) Discard(ctx context.Context, job *Job, execErr error) error {
	return c.DiscardTx(ctx, c.pool, job, execErr)
}

// DiscardTx is Discard bound to an existing transaction.
func (c *Client) DiscardTx(ctx context.Context, q querier, job *Job, execErr error) error {
	entry, err := errorEntry(job, execErr)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		UPDATE `+c.table+` SET
			state = 'discarded'::`+c.stateType+`,
			discarded_at = now(),
			errors = errors || $2::jsonb
		WHERE id = $1`,
		job.ID, entry,
	)
	return err
}

// Snooze pushes a job back to scheduled for d from now. The attempt ceiling
// is raised by one so the snooze never burns an attempt the job didn't use,
// which would otherwise discard it prematurely on a later error.
func (c *Client) Snooze(ctx context.Context, job *Job, d time.Duration) error {
	return c.SnoozeTx(ctx, c.pool, job, d)
}

// SnoozeTx is Snooze bound to an existing transaction.
func (c *Client) SnoozeTx(ctx context.Context, q querier, job *Job, d time.Duration) error {
	_, err := q.Exec(ctx, `
		UPDATE `+c.table+` SET
			state = 'scheduled'::`+c.stateType+`,
			scheduled_at = $2,
			max_attempts = max_attempts + 1
		WHERE id = $1`,
		job.ID, time.Now().UTC().Add(d),
	)
	return err
}

// Cancel transitions a job to cancelled unless it already reached a terminal
// state. Cancelling a completed, discarded or already-cancelled job is a
// silent no-op: the guard lives in the update predicate, not a prior read.
func (c *Client) Cancel(ctx context.Context, job *Job) error {
	return c.CancelTx(ctx, c.pool, job)
}

// CancelTx is Cancel bound to an existing transaction.
func (c *Client) CancelTx(ctx context.Context, q querier, job *Job) error {
	_, err := q.Exec(ctx, `
		UPDATE `+c.table+` SET
			state = 'cancelled'::`+c.stateType+`,
			cancelled_at = now()
		WHERE id = $1 AND state NOT IN (
			'completed'::`+c.stateType+`,
			'discarded'::`+c.stateType+`,
			'cancelled'::`+c.stateType+`
		)`,
		job.ID,
	)
	return err
}

// Retry revives a job: back to available, terminal timestamps cleared, and
// the attempt ceiling raised to at least attempt+1 so the revived job is
// guaranteed one more run even if it had exhausted its original budget. The
// guard skips jobs that are already queued or running, making Retry safe
// against a concurrent fetch or promotion.
func (c *Client) Retry(ctx context.Context, job *Job) error {
	return c.RetryTx(ctx, c.pool, job)
}

// RetryTx is Retry bound to an existing transaction.
func (c *Client) RetryTx(ctx context.Context, q querier, job *Job) error {
	_, err := q.Exec(ctx, `
		UPDATE `+c.table+` SET
			state = 'available'::`+c.stateType+`,
			scheduled_at = now(),
			max_attempts = GREATEST(max_attempts, attempt + 1),
			completed_at = NULL,
			cancelled_at = NULL,
			discarded_at = NULL
		WHERE id = $1 AND state NOT IN (
			'available'::`+c.stateType+`,
			'executing'::`+c.stateType+`,
			'scheduled'::`+c.stateType+`
		)`,
		job.ID,
	)
	return err
}

// errorEntry renders the attempt-error record appended to the job's history.
func errorEntry(job *Job, execErr error) (string, error) {
	msg := "unknown failure"
	if execErr != nil {
		msg = execErr.Error()
	}
	entry, err := json.Marshal(AttemptError{
		At:      time.Now().UTC(),
		Attempt: job.Attempt,
		Error:   msg,
	})
	if err != nil {
		return "", err
	}
	return string(entry), nil
}
