package pgqueue

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
)

// Periodic describes a recurring job: a standard 5-field cron expression
// (minute hour day month weekday) plus the insert parameters used for each
// occurrence.
type Periodic struct {
	Spec   string
	Worker string
	Args   any
	Opts   []InsertOption
}

// InsertPeriodic enqueues the next occurrence of a recurring job. The insert
// is scheduled at the next cron boundary and made unique over the gap to the
// following boundary, so any number of nodes calling this concurrently (or
// repeatedly within one tick) persist exactly one row per occurrence.
func (c *Client) InsertPeriodic(ctx context.Context, p Periodic) (*Job, error) {
	next, gap, err := nextWindow(p.Spec, time.Now())
	if err != nil {
		return nil, err
	}

	opts := slices.Clone(p.Opts)
	opts = append(opts,
		ScheduledAt(next),
		Unique(UniqueOpts{Period: gap}),
	)
	return c.Insert(ctx, p.Worker, p.Args, opts...)
}

// nextWindow computes the next occurrence of spec after now and the gap to
// the occurrence after that.
func nextWindow(spec string, now time.Time) (time.Time, time.Duration, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, 0, errors.Join(ErrInvalidSchedule, err)
	}
	next := sched.Next(now)
	return next, sched.Next(next).Sub(next), nil
}
