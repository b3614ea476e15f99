// Package pgqueue is the persistence and coordination core of a durable
// PostgreSQL-backed job queue: claiming work for execution, enforcing
// uniqueness under concurrency, and driving jobs through their lifecycle
// (retry, backoff, cancellation, discard) across many worker processes
// sharing one database.
//
// All mutual exclusion is delegated to PostgreSQL. Fetching uses
// FOR UPDATE SKIP LOCKED so concurrent fetchers never claim the same row and
// never block each other; uniqueness is guarded by non-blocking,
// transaction-scoped advisory locks; lifecycle transitions are single
// conditional updates whose guard predicate makes them safe no-ops under
// races. The library holds no cross-call state besides the connection pool.
//
// # Quick Start
//
//	pool, err := db.Connect(ctx, dbCfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := pgqueue.Migrate(ctx, pool, logger); err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := pgqueue.New(pool, pgqueue.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Enqueue.
//	job, err := client.Insert(ctx, "send_email", emailArgs,
//	    pgqueue.InQueue("email"),
//	    pgqueue.WithPriority(1),
//	)
//
//	// Claim and work.
//	jobs, err := client.FetchJobs(ctx, "email", 10)
//	for _, j := range jobs {
//	    if err := work(j); err != nil {
//	        _ = client.Error(ctx, j, err, backoffFor(j))
//	        continue
//	    }
//	    _ = client.Complete(ctx, j)
//	}
//
// # Uniqueness
//
// Attach a [UniqueOpts] to an insert to deduplicate logically identical jobs:
//
//	job, err := client.Insert(ctx, "sync_account", args,
//	    pgqueue.Unique(pgqueue.UniqueOpts{
//	        Fields: []pgqueue.UniqueField{pgqueue.UniqueByWorker, pgqueue.UniqueByArgs},
//	        Period: time.Hour,
//	    }),
//	)
//
// When a concurrent transaction holds the uniqueness lock the candidate is
// returned unpersisted (ID == 0): the other transaction's result stands.
//
// # Transactional Composition
//
// Compose inserts and arbitrary SQL as named steps of one transaction, each
// step a function of the prior steps' results:
//
//	results, err := client.NewPipeline().
//	    InsertStep("parent", "import_users", importArgs).
//	    InsertStepFunc("child", func(prior pgqueue.Results) (string, any, []pgqueue.InsertOption, error) {
//	        parent := prior.Job("parent")
//	        return "notify_admin", map[string]any{"import_id": parent.ID}, nil, nil
//	    }).
//	    Run(ctx)
//
// Supervision (polling intervals, backpressure, promotion loops) is the host
// process's concern; the primitives it needs ([Client.StageReady],
// [Client.RescueStuck], [Client.DeleteFinalized]) are provided here as
// single-statement operations.
package pgqueue
