// FILE: src/internal/source/source.go
package source

import (
	"strings"
	"time"

	"logfan/src/internal/core"
)

// Source produces log entries from an external origin
type Source interface {
	// Subscribe returns a channel receiving produced entries
	Subscribe() <-chan *core.LogEntry

	// Start begins producing entries
	Start() error

	// Stop halts production and closes subscriber channels
	Stop()

	// GetStats returns source statistics
	GetStats() SourceStats
}

// SourceStats contains statistics about a source
type SourceStats struct {
	Type           string
	TotalEntries   uint64
	DroppedEntries uint64
	StartTime      time.Time
	LastEntryTime  time.Time
	Details        map[string]any
}

// Maps conventional severity markers found in free-form lines to entry
// levels. Lines with no marker stay raw.
var levelMarkers = []struct {
	markers []string
	level   core.Level
}{
	{[]string{"FATAL:", "[FATAL]"}, core.LevelFatal},
	{[]string{"[ERROR]", "ERROR:", " ERROR ", "ERR:", "[ERR]"}, core.LevelError},
	{[]string{"[WARN]", "WARN:", " WARN ", "WARNING:", "[WARNING]"}, core.LevelWarn},
	{[]string{"[INFO]", "INFO:", " INFO ", "[INF]", "INF:"}, core.LevelInfo},
	{[]string{"[DEBUG]", "DEBUG:", " DEBUG ", "[DBG]", "DBG:"}, core.LevelDebug},
}

func extractLevel(line string) (core.Level, bool) {
	upperLine := strings.ToUpper(line)
	for _, group := range levelMarkers {
		for _, marker := range group.markers {
			if strings.Contains(upperLine, marker) {
				return group.level, true
			}
		}
	}
	return core.LevelRaw, false
}
