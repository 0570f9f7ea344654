// FILE: logfan/src/internal/sink/memory_test.go
package sink

import (
	"context"
	"testing"

	"logfan/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySink_Write(t *testing.T) {
	t.Run("CapturesInArrivalOrder", func(t *testing.T) {
		s := NewMemorySink(MemoryConfig{}, nil)

		for _, msg := range []string{"one", "two", "three"} {
			require.NoError(t, s.Write(infoEntry(msg)))
		}

		entries := s.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, "one", entries[0].Message)
		assert.Equal(t, "two", entries[1].Message)
		assert.Equal(t, "three", entries[2].Message)
	})

	t.Run("StoresClone", func(t *testing.T) {
		s := NewMemorySink(MemoryConfig{}, nil)

		entry := infoEntry("original")
		entry.Params = map[string]any{"k": "v"}
		require.NoError(t, s.Write(entry))

		entry.Message = "mutated"
		entry.Params["k"] = "changed"

		captured := s.Entries()[0]
		assert.Equal(t, "original", captured.Message)
		assert.Equal(t, "v", captured.Params["k"])
	})

	t.Run("FiltersBelowMinLevel", func(t *testing.T) {
		s := NewMemorySink(MemoryConfig{MinLevel: core.LevelError}, nil)

		require.NoError(t, s.Write(infoEntry("skipped")))
		require.NoError(t, s.Write(&core.LogEntry{Type: core.LevelFatal, Message: "kept"}))

		entries := s.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "kept", entries[0].Message)
	})

	t.Run("DropsOldestBeyondCap", func(t *testing.T) {
		s := NewMemorySink(MemoryConfig{MaxSize: 3}, nil)

		for _, msg := range []string{"a", "b", "c", "d", "e"} {
			require.NoError(t, s.Write(infoEntry(msg)))
		}

		entries := s.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, "c", entries[0].Message)
		assert.Equal(t, "d", entries[1].Message)
		assert.Equal(t, "e", entries[2].Message)
	})

	t.Run("TransformDropsEntry", func(t *testing.T) {
		s := NewMemorySink(MemoryConfig{}, func(e *core.LogEntry) *core.LogEntry {
			if e.Message == "drop" {
				return nil
			}
			return e
		})

		require.NoError(t, s.Write(infoEntry("drop")))
		require.NoError(t, s.Write(infoEntry("keep")))

		entries := s.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "keep", entries[0].Message)
	})
}

func TestMemorySink_Reset(t *testing.T) {
	s := NewMemorySink(MemoryConfig{}, nil)

	require.NoError(t, s.Write(infoEntry("gone")))
	s.Reset()

	assert.Empty(t, s.Entries())

	require.NoError(t, s.Write(infoEntry("fresh")))
	assert.Len(t, s.Entries(), 1)
}

func TestMemorySink_EntriesSnapshot(t *testing.T) {
	s := NewMemorySink(MemoryConfig{}, nil)
	require.NoError(t, s.Write(infoEntry("held")))

	snapshot := s.Entries()
	_ = append(snapshot, infoEntry("stray"))

	assert.Len(t, s.Entries(), 1)
}

func TestMemorySink_Close(t *testing.T) {
	s := NewMemorySink(MemoryConfig{}, nil)
	require.NoError(t, s.Write(infoEntry("before")))

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	require.NoError(t, s.Write(infoEntry("after")))
	entries := s.Entries()
	require.Len(t, entries, 1, "entries stay readable, writes stop")
	assert.Equal(t, "before", entries[0].Message)
}

func TestMemorySink_GetStats(t *testing.T) {
	s := NewMemorySink(MemoryConfig{MaxSize: 10}, nil)
	require.NoError(t, s.Write(infoEntry("x")))

	stats := s.GetStats()
	assert.Equal(t, "memory", stats.Type)
	assert.Equal(t, uint64(1), stats.TotalProcessed)
	assert.Equal(t, 1, stats.Details["held_entries"])
}
