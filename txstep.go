package pgqueue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/pgqueue/pkg/db"
)

// Results holds the outputs of already-executed pipeline steps, keyed by step
// name. Later steps derive their inputs from it.
type Results map[string]any

// Job returns a prior step's single-job result, or nil when the step did not
// run or produced something else.
func (r Results) Job(step string) *Job {
	j, _ := r[step].(*Job)
	return j
}

// Jobs returns a prior step's multi-job result.
func (r Results) Jobs(step string) []*Job {
	jobs, _ := r[step].([]*Job)
	return jobs
}

// StepFunc is one named unit of a pipeline. It receives the live transaction
// and the results of every prior step; its return value is stored under the
// step's name. Any error aborts the whole pipeline and rolls the transaction
// back.
type StepFunc func(ctx context.Context, tx pgx.Tx, prior Results) (any, error)

// Pipeline composes queue operations (and arbitrary SQL) as an ordered list
// of named steps executed sequentially inside one transaction. Each queue
// step rebinds the client's operations to the pipeline's live transaction
// before delegating, so everything commits or rolls back as a unit.
type Pipeline struct {
	client *Client
	steps  []pipelineStep
}

type pipelineStep struct {
	fn   StepFunc
	name string
}

// NewPipeline starts an empty pipeline bound to the client.
func (c *Client) NewPipeline() *Pipeline {
	return &Pipeline{client: c}
}

// Step appends a named step. Names must be unique within the pipeline;
// duplicates are reported when Run validates the sequence.
func (p *Pipeline) Step(name string, fn StepFunc) *Pipeline {
	p.steps = append(p.steps, pipelineStep{name: name, fn: fn})
	return p
}

// InsertStep appends a step inserting one job with fixed parameters.
func (p *Pipeline) InsertStep(name, worker string, args any, opts ...InsertOption) *Pipeline {
	return p.Step(name, func(ctx context.Context, tx pgx.Tx, _ Results) (any, error) {
		return p.client.InsertTx(ctx, tx, worker, args, opts...)
	})
}

// InsertStepFunc appends an insert step whose parameters are derived from
// prior step results.
func (p *Pipeline) InsertStepFunc(name string, build func(prior Results) (worker string, args any, opts []InsertOption, err error)) *Pipeline {
	return p.Step(name, func(ctx context.Context, tx pgx.Tx, prior Results) (any, error) {
		worker, args, opts, err := build(prior)
		if err != nil {
			return nil, err
		}
		return p.client.InsertTx(ctx, tx, worker, args, opts...)
	})
}

// InsertManyStep appends a bulk-insert step with a fixed batch.
func (p *Pipeline) InsertManyStep(name string, jobs []BatchJob) *Pipeline {
	return p.Step(name, func(ctx context.Context, tx pgx.Tx, _ Results) (any, error) {
		return p.client.InsertManyTx(ctx, tx, jobs)
	})
}

// InsertManyStepFunc appends a bulk-insert step whose batch is derived from
// prior step results.
func (p *Pipeline) InsertManyStepFunc(name string, build func(prior Results) ([]BatchJob, error)) *Pipeline {
	return p.Step(name, func(ctx context.Context, tx pgx.Tx, prior Results) (any, error) {
		jobs, err := build(prior)
		if err != nil {
			return nil, err
		}
		return p.client.InsertManyTx(ctx, tx, jobs)
	})
}

// validate checks the step sequence before any SQL runs.
func (p *Pipeline) validate() error {
	if len(p.steps) == 0 {
		return ErrNoSteps
	}
	seen := make(map[string]struct{}, len(p.steps))
	for _, s := range p.steps {
		if _, dup := seen[s.name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateStep, s.name)
		}
		seen[s.name] = struct{}{}
	}
	return nil
}

// Run executes the steps in order inside a single transaction. The failure
// of any step rolls back every prior step's effects and is returned as-is.
func (p *Pipeline) Run(ctx context.Context) (Results, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	results := make(Results, len(p.steps))
	err := db.WithTx(ctx, p.client.pool, func(tx pgx.Tx) error {
		for _, s := range p.steps {
			out, err := s.fn(ctx, tx, results)
			if err != nil {
				return fmt.Errorf("pgqueue: step %q: %w", s.name, err)
			}
			results[s.name] = out
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
