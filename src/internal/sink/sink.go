// FILE: src/internal/sink/sink.go
package sink

import (
	"context"
	"time"

	"logfan/src/internal/core"
)

// Sink represents an output destination for log entries
type Sink interface {
	// Write delivers or enqueues one entry. Implementations return
	// quickly: durable sinks enqueue and deliver from their own loop.
	// After Close, Write silently discards and returns nil.
	Write(entry *core.LogEntry) error

	// Close stops the sink, waiting for buffered entries up to the
	// sink's close timeout or ctx, whichever ends first. Calling Close
	// again is a no-op.
	Close(ctx context.Context) error

	// GetStats returns sink statistics
	GetStats() SinkStats
}

// SinkStats contains statistics about a sink
type SinkStats struct {
	Type              string
	TotalProcessed    uint64
	TotalFailed       uint64
	ActiveConnections int64
	StartTime         time.Time
	LastProcessed     time.Time
	Details           map[string]any
}

// ErrorFunc observes asynchronous delivery failures. willRetry is false
// on the report that precedes data loss.
type ErrorFunc func(err error, entry *core.LogEntry, attempt int, willRetry bool)

// TransformFunc lets a sink rewrite its own copy of an entry before
// delivery. Returning nil drops the entry for that sink only.
type TransformFunc func(entry *core.LogEntry) *core.LogEntry
