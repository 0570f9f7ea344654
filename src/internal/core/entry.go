// FILE: src/internal/core/entry.go
package core

import (
	"time"
)

// LogEntry represents a single log record flowing through the dispatcher.
// An entry is built once per log call and passed read-only to every sink;
// a sink that needs to transform an entry must Clone it first.
type LogEntry struct {
	Timestamp   int64  `json:"timestamp"` // Unix epoch milliseconds, UTC
	Type        Level  `json:"type"`
	ServiceName string `json:"serviceName,omitempty"`
	EntityName  string `json:"entityName,omitempty"`

	// Template is the pre-interpolation message text; Message is the
	// rendered form delivered to sinks.
	Template string `json:"template,omitempty"`
	Message  string `json:"message"`

	Params map[string]any `json:"params,omitempty"`

	// RedactedParams and RedactedKeys are set only when Params was
	// non-empty and at least one key was actually redacted.
	RedactedParams map[string]any `json:"redactedParams,omitempty"`
	RedactedKeys   []string       `json:"redactedKeys,omitempty"`

	// Err carries an opaque causal payload; it never round-trips
	// through JSON.
	Err error `json:"-"`

	// ExitCode, when non-nil, requests process exit with that code
	// after delivery.
	ExitCode *int `json:"exitCode,omitempty"`

	Tags []string `json:"tags,omitempty"`
}

// Now returns the current time as an entry timestamp
func Now() int64 {
	return time.Now().UnixMilli()
}

// Time converts the entry timestamp back to a time.Time in UTC
func (e *LogEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// DeliveryParams returns the params a sink should expose: the redacted
// view when redaction applied, the original params otherwise.
func (e *LogEntry) DeliveryParams() map[string]any {
	if e.RedactedParams != nil {
		return e.RedactedParams
	}
	return e.Params
}

// Clone returns a deep copy a sink may mutate without affecting the
// shared instance.
func (e *LogEntry) Clone() *LogEntry {
	if e == nil {
		return nil
	}
	dup := *e
	dup.Params = cloneTree(e.Params)
	dup.RedactedParams = cloneTree(e.RedactedParams)
	if e.RedactedKeys != nil {
		dup.RedactedKeys = append([]string(nil), e.RedactedKeys...)
	}
	if e.Tags != nil {
		dup.Tags = append([]string(nil), e.Tags...)
	}
	if e.ExitCode != nil {
		code := *e.ExitCode
		dup.ExitCode = &code
	}
	return &dup
}

// cloneTree deep-copies nested string-keyed maps and slices; scalar
// leaves are shared.
func cloneTree(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	dup := make(map[string]any, len(m))
	for k, v := range m {
		dup[k] = cloneValue(v)
	}
	return dup
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneTree(val)
	case []any:
		dup := make([]any, len(val))
		for i, item := range val {
			dup[i] = cloneValue(item)
		}
		return dup
	default:
		return v
	}
}
