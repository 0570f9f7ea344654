// FILE: src/internal/format/format.go
package format

import (
	"fmt"

	"logfan/src/internal/core"
)

// Formatter defines the interface for transforming a LogEntry into the
// byte sequence a sink delivers. Implementations append the trailing
// newline themselves.
type Formatter interface {
	// Format takes a LogEntry and returns the formatted line as a byte slice.
	Format(entry *core.LogEntry) ([]byte, error)

	// Name returns the formatter type name
	Name() string
}

// New creates a Formatter by type name. An empty name selects plain.
func New(name string) (Formatter, error) {
	switch name {
	case "", "plain":
		return NewPlainFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", name)
	}
}

// Func adapts an operator-supplied line function into a Formatter.
// The function returns a single line; the trailing newline is appended
// here so custom formatters never have to remember it.
type Func func(entry *core.LogEntry) (string, error)

func (f Func) Format(entry *core.LogEntry) ([]byte, error) {
	line, err := f(entry)
	if err != nil {
		return nil, err
	}
	return append([]byte(line), '\n'), nil
}

func (f Func) Name() string {
	return "custom"
}
