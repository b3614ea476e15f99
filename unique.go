package pgqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// UniqueField names a job attribute that participates in duplicate matching.
type UniqueField string

const (
	UniqueByArgs   UniqueField = "args"
	UniqueByQueue  UniqueField = "queue"
	UniqueByWorker UniqueField = "worker"
)

// UniqueOpts declares when two insert attempts count as the same logical job.
// It is consumed once by the resolver and never persisted.
type UniqueOpts struct {
	// Fields are the job attributes an existing row must match to count as a
	// duplicate. Defaults to worker, queue and args.
	Fields []UniqueField

	// Keys restricts the args comparison to a subset of top-level keys.
	// Only meaningful when Fields includes args.
	Keys []string

	// Period is the lookback window: only rows inserted within it are
	// considered. Zero means unbounded.
	Period time.Duration

	// States is the set of states a row may be in to count as a conflict.
	// Defaults to the incomplete states (available, scheduled, executing,
	// retryable), so finished jobs do not block re-enqueueing.
	States []JobState

	// ReplaceArgs overwrites the duplicate's args with the candidate's
	// instead of leaving the existing row untouched.
	ReplaceArgs bool
}

// defaultUniqueStates are the states searched when UniqueOpts.States is empty.
var defaultUniqueStates = []JobState{
	JobStateAvailable,
	JobStateScheduled,
	JobStateExecuting,
	JobStateRetryable,
}

// normalize fills defaults and sorts fields, keys and states so that two
// callers describing the same constraint hash to the same lock key.
func (o UniqueOpts) normalize() UniqueOpts {
	if len(o.Fields) == 0 {
		o.Fields = []UniqueField{UniqueByArgs, UniqueByQueue, UniqueByWorker}
	} else {
		o.Fields = slices.Clone(o.Fields)
	}
	slices.Sort(o.Fields)
	o.Fields = slices.Compact(o.Fields)

	o.Keys = slices.Clone(o.Keys)
	slices.Sort(o.Keys)
	o.Keys = slices.Compact(o.Keys)

	if len(o.States) == 0 {
		o.States = slices.Clone(defaultUniqueStates)
	} else {
		known := JobStates()
		o.States = slices.DeleteFunc(slices.Clone(o.States), func(s JobState) bool {
			return !slices.Contains(known, s)
		})
	}
	slices.Sort(o.States)
	o.States = slices.Compact(o.States)

	return o
}

// lockBase derives the advisory lock base key for a candidate under these
// (normalized) constraints. Two concurrent inserts that could resolve to
// the same duplicate hash to the same key; unrelated inserts almost never do.
func (o UniqueOpts) lockBase(candidate *Job) int64 {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.Write([]byte(p))
			_, _ = h.Write([]byte{0})
		}
	}

	for _, f := range o.Fields {
		switch f {
		case UniqueByWorker:
			write("worker", candidate.Worker)
		case UniqueByQueue:
			write("queue", candidate.Queue)
		case UniqueByArgs:
			if len(o.Keys) > 0 {
				subset := argsSubset(candidate.Args, o.Keys)
				for _, k := range o.Keys {
					write("key:"+k, string(subset[k]))
				}
			} else {
				write("args", string(candidate.Args))
			}
		}
	}
	for _, s := range o.States {
		write("state", string(s))
	}

	return int64(h.Sum64()) //nolint:gosec // G115: full-range reinterpretation
}

// argsSubset extracts the raw values of the given top-level keys from an args
// document. Missing keys map to nil.
func argsSubset(args json.RawMessage, keys []string) map[string]json.RawMessage {
	doc := map[string]json.RawMessage{}
	// Invalid args were rejected at candidate construction; an unmarshal
	// failure here leaves every key nil, which still compares consistently.
	_ = json.Unmarshal(args, &doc)

	subset := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		subset[k] = doc[k]
	}
	return subset
}

// insertUnique decides, inside the caller's transaction, whether the
// candidate becomes a new row, resolves to an existing row, or replaces an
// existing row's args. When the uniqueness advisory lock is contended the
// candidate is returned unpersisted (ID == 0) without error: a concurrent
// transaction's result stands.
func (c *Client) insertUnique(ctx context.Context, tx pgx.Tx, candidate *Job, opts UniqueOpts) (*Job, error) {
	norm := opts.normalize()

	acquired, err := c.tryAcquireLock(ctx, tx, norm.lockBase(candidate))
	if err != nil {
		return nil, err
	}
	if !acquired {
		c.logger.DebugContext(ctx, "unique insert skipped: lock contended",
			"worker", candidate.Worker, "queue", candidate.Queue)
		return candidate, nil
	}

	existing, err := c.findDuplicate(ctx, tx, candidate, norm)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if existing != nil {
		if !norm.ReplaceArgs {
			return existing, nil
		}
		row := tx.QueryRow(ctx, `
			UPDATE `+c.table+` SET args = $2::jsonb
			WHERE id = $1
			RETURNING `+jobColumns,
			existing.ID, string(candidate.Args),
		)
		return scanJob(row)
	}

	return c.insert(ctx, tx, candidate)
}

// findDuplicate looks for the most recent row matching the duplicate predicate.
// The query runs over the simple protocol so the server plans it fresh each
// call: the predicate's shape varies enough across constraint combinations
// that a cached generic plan degrades into pathological scans.
func (c *Client) findDuplicate(ctx context.Context, tx pgx.Tx, candidate *Job, opts UniqueOpts) (*Job, error) {
	where, params := c.duplicatePredicate(candidate, opts)

	args := make([]any, 0, len(params)+1)
	args = append(args, pgx.QueryExecModeSimpleProtocol)
	args = append(args, params...)

	row := tx.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM `+c.table+`
		WHERE `+where+`
		ORDER BY id DESC
		LIMIT 1`,
		args...,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// duplicatePredicate assembles the WHERE clause for opts against candidate,
// one comparator per declared field: exact match for plain fields, per-key
// match when args is restricted to a key subset.
func (c *Client) duplicatePredicate(candidate *Job, opts UniqueOpts) (string, []any) {
	var (
		clauses []string
		params  []any
	)
	arg := func(v any) string {
		params = append(params, v)
		return fmt.Sprintf("$%d", len(params))
	}

	for _, f := range opts.Fields {
		switch f {
		case UniqueByWorker:
			clauses = append(clauses, "worker = "+arg(candidate.Worker))
		case UniqueByQueue:
			clauses = append(clauses, "queue = "+arg(candidate.Queue))
		case UniqueByArgs:
			if len(opts.Keys) > 0 {
				subset := argsSubset(candidate.Args, opts.Keys)
				for _, k := range opts.Keys {
					var val any
					if raw, ok := subset[k]; ok && raw != nil {
						val = string(raw)
					}
					clauses = append(clauses,
						"args -> "+arg(k)+"::text IS NOT DISTINCT FROM "+arg(val)+"::jsonb")
				}
			} else {
				clauses = append(clauses, "args = "+arg(string(candidate.Args))+"::jsonb")
			}
		}
	}

	states := make([]string, len(opts.States))
	for i, s := range opts.States {
		// States were validated against the known set in normalize, so
		// inlining the quoted literals is safe.
		states[i] = "'" + string(s) + "'"
	}
	clauses = append(clauses, "state IN ("+strings.Join(states, ", ")+")")

	if opts.Period > 0 {
		clauses = append(clauses, "inserted_at >= "+arg(time.Now().UTC().Add(-opts.Period)))
	}

	return strings.Join(clauses, " AND "), params
}
