package pgqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pgqueue/pkg/logger"
)

// newTestClient builds a client without a pool for exercising the pure parts
// (candidate construction, predicates, lock keys).
func newTestClient(t *testing.T) *Client {
	t.Helper()

	cfg := Config{}.withDefaults()
	return &Client{
		cfg:       cfg,
		logger:    logger.NewNope(),
		table:     pgx.Identifier{cfg.Schema, "jobs"}.Sanitize(),
		stateType: pgx.Identifier{cfg.Schema, "job_state"}.Sanitize(),
		lockSalt:  namespaceSalt(cfg.Schema),
	}
}

func TestInQueue(t *testing.T) {
	t.Parallel()

	cfg := &insertConfig{}
	InQueue("email")(cfg)
	assert.Equal(t, "email", cfg.queue)
}

func TestInQueue_Empty(t *testing.T) {
	t.Parallel()

	cfg := &insertConfig{queue: "existing"}
	InQueue("")(cfg)

	// Should not change if empty
	assert.Equal(t, "existing", cfg.queue)
}

func TestWithPriority(t *testing.T) {
	t.Parallel()

	cfg := &insertConfig{}
	WithPriority(3)(cfg)
	assert.Equal(t, int16(3), cfg.priority)
}

func TestWithMaxAttempts(t *testing.T) {
	t.Parallel()

	cfg := &insertConfig{maxAttempts: 20}
	WithMaxAttempts(5)(cfg)
	assert.Equal(t, int16(5), cfg.maxAttempts)

	WithMaxAttempts(0)(cfg)
	assert.Equal(t, int16(5), cfg.maxAttempts)
}

func TestScheduledAt(t *testing.T) {
	t.Parallel()

	cfg := &insertConfig{}
	future := time.Now().Add(24 * time.Hour)
	ScheduledAt(future)(cfg)

	require.NotNil(t, cfg.scheduledAt)
	assert.Equal(t, future, *cfg.scheduledAt)
}

func TestScheduledIn(t *testing.T) {
	t.Parallel()

	cfg := &insertConfig{}
	before := time.Now()
	ScheduledIn(time.Hour)(cfg)
	after := time.Now()

	require.NotNil(t, cfg.scheduledAt)
	assert.True(t, cfg.scheduledAt.After(before.Add(time.Hour-time.Second)))
	assert.True(t, cfg.scheduledAt.Before(after.Add(time.Hour+time.Second)))
}

func TestUnique(t *testing.T) {
	t.Parallel()

	cfg := &insertConfig{}
	Unique(UniqueOpts{Period: time.Hour, ReplaceArgs: true})(cfg)

	require.NotNil(t, cfg.unique)
	assert.Equal(t, time.Hour, cfg.unique.Period)
	assert.True(t, cfg.unique.ReplaceArgs)
}

func TestBuildCandidate(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		job, cfg, err := client.buildCandidate("send_email", nil)
		require.NoError(t, err)
		assert.Equal(t, JobStateAvailable, job.State)
		assert.Equal(t, "default", job.Queue)
		assert.Equal(t, "send_email", job.Worker)
		assert.Equal(t, int16(0), job.Priority)
		assert.Equal(t, int16(20), job.MaxAttempts)
		assert.JSONEq(t, `{}`, string(job.Args))
		assert.Zero(t, job.ID)
		assert.Nil(t, cfg.unique)
	})

	t.Run("args are marshaled", func(t *testing.T) {
		t.Parallel()

		type payload struct {
			Email string `json:"email"`
			Count int    `json:"count"`
		}
		job, _, err := client.buildCandidate("send_email", payload{Email: "a@b.c", Count: 2})
		require.NoError(t, err)

		var decoded payload
		require.NoError(t, json.Unmarshal(job.Args, &decoded))
		assert.Equal(t, payload{Email: "a@b.c", Count: 2}, decoded)
	})

	t.Run("future schedule makes job scheduled", func(t *testing.T) {
		t.Parallel()

		at := time.Now().Add(time.Hour)
		job, _, err := client.buildCandidate("send_email", nil, ScheduledAt(at))
		require.NoError(t, err)
		assert.Equal(t, JobStateScheduled, job.State)
		assert.Equal(t, at.UTC(), job.ScheduledAt)
	})

	t.Run("past schedule stays available", func(t *testing.T) {
		t.Parallel()

		job, _, err := client.buildCandidate("send_email", nil, ScheduledAt(time.Now().Add(-time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, JobStateAvailable, job.State)
	})

	t.Run("missing worker", func(t *testing.T) {
		t.Parallel()

		_, _, err := client.buildCandidate("", nil)
		assert.ErrorIs(t, err, ErrWorkerRequired)
	})

	t.Run("unmarshalable args", func(t *testing.T) {
		t.Parallel()

		_, _, err := client.buildCandidate("send_email", func() {})
		assert.ErrorIs(t, err, ErrInvalidArgs)
	})
}
