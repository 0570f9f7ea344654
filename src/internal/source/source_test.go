// FILE: logfan/src/internal/source/source_test.go
package source

import (
	"testing"

	"logfan/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestExtractLevel(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		expected core.Level
		found    bool
	}{
		{"BracketError", "2024-06-15 [ERROR] disk failure", core.LevelError, true},
		{"ColonError", "error: connection refused", core.LevelError, true},
		{"ShortError", "ERR: oops", core.LevelError, true},
		{"BracketWarn", "[WARN] queue depth", core.LevelWarn, true},
		{"WarningWord", "WARNING: low disk", core.LevelWarn, true},
		{"SpacedInfo", "12:00:01 INFO server started", core.LevelInfo, true},
		{"ShortInfo", "[INF] up", core.LevelInfo, true},
		{"BracketDebug", "[DEBUG] cache miss", core.LevelDebug, true},
		{"ShortDebug", "DBG: tick", core.LevelDebug, true},
		{"Fatal", "FATAL: unrecoverable", core.LevelFatal, true},
		{"LowercaseMarker", "[error] lowercased", core.LevelError, true},
		{"NoMarker", "plain line with no marker", core.LevelRaw, false},
		{"Empty", "", core.LevelRaw, false},
		{"FatalBeatsError", "FATAL: error in error handler", core.LevelFatal, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			level, found := extractLevel(tc.line)
			assert.Equal(t, tc.expected, level)
			assert.Equal(t, tc.found, found)
		})
	}
}
