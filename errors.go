package pgqueue

import "errors"

var (
	// ErrPoolRequired is returned when a client is created without a
	// database pool.
	ErrPoolRequired = errors.New("pgqueue: pool is required")

	// ErrWorkerRequired is returned when a job is inserted without a
	// worker name.
	ErrWorkerRequired = errors.New("pgqueue: worker is required")

	// ErrInvalidArgs is returned when job args cannot be encoded as JSON.
	ErrInvalidArgs = errors.New("pgqueue: invalid job args")

	// ErrNoSteps is returned when an empty pipeline is run.
	ErrNoSteps = errors.New("pgqueue: pipeline has no steps")

	// ErrDuplicateStep is returned when two pipeline steps share a name.
	ErrDuplicateStep = errors.New("pgqueue: duplicate pipeline step name")

	// ErrInvalidSchedule is returned when a periodic job carries a cron
	// expression that cannot be parsed.
	ErrInvalidSchedule = errors.New("pgqueue: invalid cron schedule")
)
