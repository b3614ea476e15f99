package pgqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueOpts_Normalize(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		norm := UniqueOpts{}.normalize()
		assert.Equal(t, []UniqueField{UniqueByArgs, UniqueByQueue, UniqueByWorker}, norm.Fields)
		assert.ElementsMatch(t, defaultUniqueStates, norm.States)
		assert.Zero(t, norm.Period)
	})

	t.Run("drops unknown states", func(t *testing.T) {
		t.Parallel()

		norm := UniqueOpts{States: []JobState{JobStateAvailable, "bogus"}}.normalize()
		assert.Equal(t, []JobState{JobStateAvailable}, norm.States)
	})

	t.Run("sorts and dedupes", func(t *testing.T) {
		t.Parallel()

		norm := UniqueOpts{
			Fields: []UniqueField{UniqueByWorker, UniqueByArgs, UniqueByWorker},
			Keys:   []string{"b", "a", "b"},
		}.normalize()
		assert.Equal(t, []UniqueField{UniqueByArgs, UniqueByWorker}, norm.Fields)
		assert.Equal(t, []string{"a", "b"}, norm.Keys)
	})

	t.Run("does not mutate the caller's slices", func(t *testing.T) {
		t.Parallel()

		states := []JobState{JobStateExecuting, JobStateAvailable}
		UniqueOpts{States: states}.normalize()
		assert.Equal(t, []JobState{JobStateExecuting, JobStateAvailable}, states)
	})
}

func TestUniqueOpts_LockBase(t *testing.T) {
	t.Parallel()

	job := func(worker, queue, args string) *Job {
		return &Job{Worker: worker, Queue: queue, Args: json.RawMessage(args)}
	}

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		opts := UniqueOpts{}.normalize()
		a := opts.lockBase(job("w", "q", `{"n":1}`))
		b := opts.lockBase(job("w", "q", `{"n":1}`))
		assert.Equal(t, a, b)
	})

	t.Run("differs across candidates", func(t *testing.T) {
		t.Parallel()

		opts := UniqueOpts{}.normalize()
		a := opts.lockBase(job("w", "q", `{"n":1}`))
		b := opts.lockBase(job("w", "q", `{"n":2}`))
		assert.NotEqual(t, a, b)
	})

	t.Run("key subset ignores other args keys", func(t *testing.T) {
		t.Parallel()

		opts := UniqueOpts{
			Fields: []UniqueField{UniqueByArgs},
			Keys:   []string{"account_id"},
		}.normalize()
		a := opts.lockBase(job("w", "q", `{"account_id":7,"batch":1}`))
		b := opts.lockBase(job("w", "q", `{"account_id":7,"batch":2}`))
		assert.Equal(t, a, b)

		c := opts.lockBase(job("w", "q", `{"account_id":8,"batch":1}`))
		assert.NotEqual(t, a, c)
	})

	t.Run("states participate", func(t *testing.T) {
		t.Parallel()

		j := job("w", "q", `{}`)
		a := UniqueOpts{States: []JobState{JobStateAvailable}}.normalize().lockBase(j)
		b := UniqueOpts{States: []JobState{JobStateExecuting}}.normalize().lockBase(j)
		assert.NotEqual(t, a, b)
	})
}

func TestDuplicatePredicate(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	candidate := &Job{
		Worker: "sync_account",
		Queue:  "default",
		Args:   json.RawMessage(`{"account_id":7,"batch":1}`),
	}

	t.Run("full document match", func(t *testing.T) {
		t.Parallel()

		opts := UniqueOpts{}.normalize()
		where, params := client.duplicatePredicate(candidate, opts)

		assert.Contains(t, where, "args = $1::jsonb")
		assert.Contains(t, where, "queue = $2")
		assert.Contains(t, where, "worker = $3")
		assert.Contains(t, where, "state IN ('available', 'executing', 'retryable', 'scheduled')")
		assert.NotContains(t, where, "inserted_at")
		require.Len(t, params, 3)
		assert.Equal(t, `{"account_id":7,"batch":1}`, params[0])
	})

	t.Run("key subset match", func(t *testing.T) {
		t.Parallel()

		opts := UniqueOpts{
			Fields: []UniqueField{UniqueByArgs},
			Keys:   []string{"account_id", "missing"},
		}.normalize()
		where, params := client.duplicatePredicate(candidate, opts)

		assert.Contains(t, where, "args -> $1::text IS NOT DISTINCT FROM $2::jsonb")
		assert.Contains(t, where, "args -> $3::text IS NOT DISTINCT FROM $4::jsonb")
		require.Len(t, params, 4)
		assert.Equal(t, "account_id", params[0])
		assert.Equal(t, "7", params[1])
		assert.Equal(t, "missing", params[2])
		assert.Nil(t, params[3])
	})

	t.Run("bounded period adds recency filter", func(t *testing.T) {
		t.Parallel()

		opts := UniqueOpts{Period: time.Hour}.normalize()
		where, params := client.duplicatePredicate(candidate, opts)

		assert.Contains(t, where, "inserted_at >= $4")
		require.Len(t, params, 4)
		cutoff, ok := params[3].(time.Time)
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().UTC().Add(-time.Hour), cutoff, 5*time.Second)
	})
}

func TestArgsSubset(t *testing.T) {
	t.Parallel()

	subset := argsSubset(json.RawMessage(`{"a":1,"b":"x"}`), []string{"a", "c"})
	assert.Equal(t, "1", string(subset["a"]))
	assert.Nil(t, subset["c"])
	assert.NotContains(t, subset, "b")
}
