package pgqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Parallel()

	t.Run("zero config gets library defaults", func(t *testing.T) {
		t.Parallel()

		cfg := Config{}.withDefaults()
		assert.Equal(t, "public", cfg.Schema)
		assert.Equal(t, "default", cfg.Queue)
		assert.Equal(t, int16(20), cfg.MaxAttempts)
		assert.Equal(t, 100, cfg.FetchLimit)
		assert.Equal(t, time.Hour, cfg.RescueAfter)
		assert.Equal(t, 24*time.Hour, cfg.Retention)
	})

	t.Run("explicit values survive", func(t *testing.T) {
		t.Parallel()

		cfg := Config{
			Schema:      "tenant_a",
			Queue:       "email",
			MaxAttempts: 5,
			FetchLimit:  10,
			RescueAfter: time.Minute,
			Retention:   time.Hour,
		}.withDefaults()

		assert.Equal(t, "tenant_a", cfg.Schema)
		assert.Equal(t, "email", cfg.Queue)
		assert.Equal(t, int16(5), cfg.MaxAttempts)
		assert.Equal(t, 10, cfg.FetchLimit)
		assert.Equal(t, time.Minute, cfg.RescueAfter)
		assert.Equal(t, time.Hour, cfg.Retention)
	})
}
