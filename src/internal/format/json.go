// FILE: src/internal/format/json.go
package format

import (
	"encoding/json"
	"fmt"

	"logfan/src/internal/core"
)

// JSONFormatter renders one JSON object per line. Params carry the
// redacted view when redaction applied to the entry.
type JSONFormatter struct{}

// jsonLine fixes the key order of the wire object
type jsonLine struct {
	Timestamp   int64          `json:"timestamp"`
	Type        core.Level     `json:"type"`
	ServiceName string         `json:"serviceName,omitempty"`
	EntityName  string         `json:"entityName,omitempty"`
	Message     string         `json:"message"`
	Params      map[string]any `json:"params,omitempty"`
}

// Creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format renders the entry as a single JSON line
func (f *JSONFormatter) Format(entry *core.LogEntry) ([]byte, error) {
	line := jsonLine{
		Timestamp:   entry.Timestamp,
		Type:        entry.Type,
		ServiceName: entry.ServiceName,
		EntityName:  entry.EntityName,
		Message:     entry.Message,
		Params:      entry.DeliveryParams(),
	}

	result, err := json.Marshal(line)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON line: %w", err)
	}
	return append(result, '\n'), nil
}

// Returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

// FormatBatch renders a slice of entries as a single JSON array, used
// by sinks that deliver entries in batches.
func (f *JSONFormatter) FormatBatch(entries []*core.LogEntry) ([]byte, error) {
	batch := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		formatted, err := f.Format(entry)
		if err != nil {
			return nil, err
		}
		// Strip the line delimiter inside an array
		if n := len(formatted); n > 0 && formatted[n-1] == '\n' {
			formatted = formatted[:n-1]
		}
		batch = append(batch, formatted)
	}
	return json.Marshal(batch)
}
