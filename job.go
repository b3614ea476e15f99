package pgqueue

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

// JobState is the lifecycle state of a job. A job occupies exactly one state
// at any instant. New jobs start as available (or scheduled when their
// scheduled_at lies in the future) and, all going well, end up completed.
type JobState string

const (
	JobStateAvailable JobState = "available"
	JobStateScheduled JobState = "scheduled"
	JobStateExecuting JobState = "executing"
	JobStateRetryable JobState = "retryable"
	JobStateCompleted JobState = "completed"
	JobStateCancelled JobState = "cancelled"
	JobStateDiscarded JobState = "discarded"
)

// JobStates returns all known job states.
func JobStates() []JobState {
	return []JobState{
		JobStateAvailable,
		JobStateScheduled,
		JobStateExecuting,
		JobStateRetryable,
		JobStateCompleted,
		JobStateCancelled,
		JobStateDiscarded,
	}
}

// IsTerminal reports whether s is one of the terminal states. Terminal jobs
// are never worked again without an explicit Retry.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateCompleted, JobStateCancelled, JobStateDiscarded:
		return true
	}
	return false
}

// AttemptError records a single failed attempt. The Error string is the fully
// rendered failure (message plus stack when the caller captured one) attached
// to the job before the error transition was applied.
type AttemptError struct {
	At      time.Time `json:"at"`
	Attempt int16     `json:"attempt"`
	Error   string    `json:"error"`
}

// Job is a single unit of work persisted in the jobs table. Rows are owned by
// the database; the library never caches them across calls, every operation
// reads or writes fresh rows.
type Job struct {
	// ID is assigned by the database sequence and immutable once created.
	// A Job returned with ID == 0 was not persisted (see InsertUnique).
	ID int64

	State    JobState
	Queue    string
	Worker   string
	Priority int16

	// Args is the opaque JSON payload handed to the worker.
	Args json.RawMessage

	// Errors is the append-only history of failed attempts, earliest first.
	Errors []AttemptError

	Attempt     int16
	MaxAttempts int16

	// AttemptedBy records who claimed the job last, as the triple
	// [node, queue, nonce]. The nonce is unique per fetch call.
	AttemptedBy []string

	InsertedAt  time.Time
	ScheduledAt time.Time
	AttemptedAt *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	DiscardedAt *time.Time
}

// jobColumns is the column list shared by every SELECT and RETURNING clause.
// Order must match scanJob.
const jobColumns = `id, state, queue, worker, priority, args, errors, attempt,
	max_attempts, attempted_by, inserted_at, scheduled_at, attempted_at,
	completed_at, cancelled_at, discarded_at`

// scanJob scans one row in jobColumns order.
func scanJob(row pgx.Row) (*Job, error) {
	var (
		j      Job
		errRaw []byte
	)
	if err := row.Scan(
		&j.ID,
		&j.State,
		&j.Queue,
		&j.Worker,
		&j.Priority,
		&j.Args,
		&errRaw,
		&j.Attempt,
		&j.MaxAttempts,
		&j.AttemptedBy,
		&j.InsertedAt,
		&j.ScheduledAt,
		&j.AttemptedAt,
		&j.CompletedAt,
		&j.CancelledAt,
		&j.DiscardedAt,
	); err != nil {
		return nil, err
	}
	if len(errRaw) > 0 {
		if err := json.Unmarshal(errRaw, &j.Errors); err != nil {
			return nil, err
		}
	}
	return &j, nil
}

// collectJobs drains rows into a slice, closing rows before returning.
func collectJobs(rows pgx.Rows) ([]*Job, error) {
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
