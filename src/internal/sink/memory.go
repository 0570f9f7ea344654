// FILE: src/internal/sink/memory.go
package sink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"logfan/src/internal/core"
)

// MemoryConfig holds configuration for the in-memory sink
type MemoryConfig struct {
	MinLevel core.Level
	MaxSize  int // retained entry cap; 0 keeps everything
}

// MemorySink captures entries in memory with level filtering and
// optional transformation. Useful as a reference sink and in tests.
type MemorySink struct {
	config    MemoryConfig
	transform TransformFunc

	mu      sync.Mutex
	entries []*core.LogEntry
	closed  atomic.Bool

	startTime      time.Time
	totalProcessed atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

// NewMemorySink creates an in-memory capture sink
func NewMemorySink(cfg MemoryConfig, transform TransformFunc) *MemorySink {
	s := &MemorySink{
		config:    cfg,
		transform: transform,
		startTime: time.Now(),
	}
	s.lastProcessed.Store(time.Time{})
	return s
}

// Write captures one entry. The stored copy is a clone so later caller
// mutations never leak into the capture.
func (s *MemorySink) Write(entry *core.LogEntry) error {
	if entry == nil || s.closed.Load() {
		return nil
	}
	if !entry.Type.Meets(s.config.MinLevel) {
		return nil
	}

	captured := entry.Clone()
	if s.transform != nil {
		captured = s.transform(captured)
		if captured == nil {
			return nil
		}
	}

	s.mu.Lock()
	s.entries = append(s.entries, captured)
	if s.config.MaxSize > 0 && len(s.entries) > s.config.MaxSize {
		// Drop oldest beyond the cap
		overflow := len(s.entries) - s.config.MaxSize
		s.entries = append(s.entries[:0:0], s.entries[overflow:]...)
	}
	s.mu.Unlock()

	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())
	return nil
}

// Entries returns a snapshot of the captured entries in arrival order
func (s *MemorySink) Entries() []*core.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*core.LogEntry(nil), s.entries...)
}

// Reset discards all captured entries
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Close marks the sink closed; captured entries stay readable
func (s *MemorySink) Close(ctx context.Context) error {
	s.closed.Store(true)
	return nil
}

// GetStats returns the sink's statistics
func (s *MemorySink) GetStats() SinkStats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)

	s.mu.Lock()
	held := len(s.entries)
	s.mu.Unlock()

	return SinkStats{
		Type:           "memory",
		TotalProcessed: s.totalProcessed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"held_entries": held,
			"min_level":    s.config.MinLevel.String(),
		},
	}
}
