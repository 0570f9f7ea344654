// FILE: src/internal/core/level.go
package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level classifies a log entry by severity or category
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal

	// LevelRaw marks pre-formatted entries that bypass decoration
	// and min-level filtering. It is a category, not a severity.
	LevelRaw
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
	LevelRaw:   "raw",
}

// Returns the lowercase wire name of the level
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int8(l))
}

// Meets reports whether an entry of this level passes a minimum
// severity filter. Raw entries always pass.
func (l Level) Meets(min Level) bool {
	if l == LevelRaw {
		return true
	}
	return l >= min
}

// ParseLevel converts a level name to its Level value
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "raw":
		return LevelRaw, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// MarshalJSON renders the level as its wire name
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts a level wire name
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
