// FILE: src/internal/format/plain.go
package format

import (
	"strings"

	"logfan/src/internal/core"
)

// PlainFormatter renders bracket-decorated single-line output:
// [TYPE] [service] [entity] message. Absent segments are omitted, and
// raw entries are rendered as the bare message.
type PlainFormatter struct{}

// Creates a new plain formatter
func NewPlainFormatter() *PlainFormatter {
	return &PlainFormatter{}
}

// Format renders the entry as a decorated line
func (f *PlainFormatter) Format(entry *core.LogEntry) ([]byte, error) {
	if entry.Type == core.LevelRaw {
		return append([]byte(entry.Message), '\n'), nil
	}

	var b strings.Builder
	b.Grow(len(entry.Message) + 32)

	b.WriteByte('[')
	b.WriteString(strings.ToUpper(entry.Type.String()))
	b.WriteByte(']')

	if entry.ServiceName != "" {
		b.WriteString(" [")
		b.WriteString(entry.ServiceName)
		b.WriteByte(']')
	}
	if entry.EntityName != "" {
		b.WriteString(" [")
		b.WriteString(entry.EntityName)
		b.WriteByte(']')
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

// Returns the formatter name
func (f *PlainFormatter) Name() string {
	return "plain"
}
