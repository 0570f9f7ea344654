// FILE: logfan/src/internal/core/entry_test.go
package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEntry_Clone(t *testing.T) {
	t.Run("NilEntry", func(t *testing.T) {
		var entry *LogEntry
		assert.Nil(t, entry.Clone())
	})

	t.Run("DeepCopiesParams", func(t *testing.T) {
		entry := &LogEntry{
			Message: "original",
			Params: map[string]any{
				"user": map[string]any{"name": "alice"},
				"tags": []any{"a", "b"},
			},
		}

		dup := entry.Clone()
		dup.Params["user"].(map[string]any)["name"] = "mallory"
		dup.Params["tags"].([]any)[0] = "z"
		dup.Message = "changed"

		assert.Equal(t, "alice", entry.Params["user"].(map[string]any)["name"])
		assert.Equal(t, "a", entry.Params["tags"].([]any)[0])
		assert.Equal(t, "original", entry.Message)
	})

	t.Run("CopiesRedactedView", func(t *testing.T) {
		entry := &LogEntry{
			Message:        "m",
			Params:         map[string]any{"password": "hunter2"},
			RedactedParams: map[string]any{"password": "[REDACTED]"},
			RedactedKeys:   []string{"password"},
		}

		dup := entry.Clone()
		dup.RedactedParams["password"] = "leaked"
		dup.RedactedKeys[0] = "other"

		assert.Equal(t, "[REDACTED]", entry.RedactedParams["password"])
		assert.Equal(t, "password", entry.RedactedKeys[0])
	})

	t.Run("CopiesExitCode", func(t *testing.T) {
		code := 3
		entry := &LogEntry{Message: "bye", ExitCode: &code}

		dup := entry.Clone()
		require.NotNil(t, dup.ExitCode)
		assert.NotSame(t, entry.ExitCode, dup.ExitCode)

		*dup.ExitCode = 7
		assert.Equal(t, 3, *entry.ExitCode)
	})

	t.Run("CopiesTags", func(t *testing.T) {
		entry := &LogEntry{Message: "m", Tags: []string{"audit"}}

		dup := entry.Clone()
		dup.Tags[0] = "other"

		assert.Equal(t, "audit", entry.Tags[0])
	})

	t.Run("SharesErr", func(t *testing.T) {
		cause := errors.New("boom")
		entry := &LogEntry{Message: "m", Err: cause}

		dup := entry.Clone()
		assert.Same(t, cause, dup.Err)
	})
}

func TestLogEntry_DeliveryParams(t *testing.T) {
	t.Run("RedactedViewWins", func(t *testing.T) {
		entry := &LogEntry{
			Params:         map[string]any{"password": "hunter2"},
			RedactedParams: map[string]any{"password": "[REDACTED]"},
		}
		assert.Equal(t, "[REDACTED]", entry.DeliveryParams()["password"])
	})

	t.Run("OriginalWhenNotRedacted", func(t *testing.T) {
		entry := &LogEntry{Params: map[string]any{"user": "alice"}}
		assert.Equal(t, "alice", entry.DeliveryParams()["user"])
	})

	t.Run("NilWhenNoParams", func(t *testing.T) {
		entry := &LogEntry{}
		assert.Nil(t, entry.DeliveryParams())
	})
}

func TestLogEntry_Time(t *testing.T) {
	stamp := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	entry := &LogEntry{Timestamp: stamp.UnixMilli()}

	assert.Equal(t, stamp, entry.Time())
	assert.Equal(t, time.UTC, entry.Time().Location())
}

func TestNow(t *testing.T) {
	before := time.Now().UnixMilli()
	stamp := Now()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, stamp, before)
	assert.LessOrEqual(t, stamp, after)
}
