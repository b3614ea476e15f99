package pgqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobState_IsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []JobState{JobStateCompleted, JobStateCancelled, JobStateDiscarded}
	for _, s := range JobStates() {
		assert.Equal(t, contains(terminal, s), s.IsTerminal(), "state %s", s)
	}
}

func contains(states []JobState, s JobState) bool {
	for _, c := range states {
		if c == s {
			return true
		}
	}
	return false
}

func TestAttemptError_JSON(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(AttemptError{At: at, Attempt: 3, Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2026-03-01T12:00:00Z","attempt":3,"error":"boom"}`, string(raw))
}

func TestErrorEntry(t *testing.T) {
	t.Parallel()

	t.Run("renders the failure", func(t *testing.T) {
		t.Parallel()

		entry, err := errorEntry(&Job{Attempt: 2}, assert.AnError)
		require.NoError(t, err)

		var decoded AttemptError
		require.NoError(t, json.Unmarshal([]byte(entry), &decoded))
		assert.Equal(t, int16(2), decoded.Attempt)
		assert.Equal(t, assert.AnError.Error(), decoded.Error)
		assert.WithinDuration(t, time.Now(), decoded.At, 5*time.Second)
	})

	t.Run("nil error still records an entry", func(t *testing.T) {
		t.Parallel()

		entry, err := errorEntry(&Job{Attempt: 1}, nil)
		require.NoError(t, err)

		var decoded AttemptError
		require.NoError(t, json.Unmarshal([]byte(entry), &decoded))
		assert.Equal(t, "unknown failure", decoded.Error)
	})
}
