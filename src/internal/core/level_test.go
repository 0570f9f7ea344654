// FILE: logfan/src/internal/core/level_test.go
package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_String(t *testing.T) {
	testCases := []struct {
		name     string
		level    Level
		expected string
	}{
		{"Debug", LevelDebug, "debug"},
		{"Info", LevelInfo, "info"},
		{"Warn", LevelWarn, "warn"},
		{"Error", LevelError, "error"},
		{"Fatal", LevelFatal, "fatal"},
		{"Raw", LevelRaw, "raw"},
		{"Unknown", Level(42), "level(42)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.level.String())
		})
	}
}

func TestLevel_Meets(t *testing.T) {
	testCases := []struct {
		name     string
		level    Level
		min      Level
		expected bool
	}{
		{"BelowMinimum", LevelDebug, LevelInfo, false},
		{"EqualMinimum", LevelInfo, LevelInfo, true},
		{"AboveMinimum", LevelError, LevelInfo, true},
		{"FatalAlwaysAboveError", LevelFatal, LevelError, true},
		{"RawPassesDebugMinimum", LevelRaw, LevelDebug, true},
		{"RawPassesFatalMinimum", LevelRaw, LevelFatal, true},
		{"DebugPassesDebugMinimum", LevelDebug, LevelDebug, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.level.Meets(tc.min))
		})
	}
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    Level
		expectError bool
	}{
		{"Debug", "debug", LevelDebug, false},
		{"Info", "info", LevelInfo, false},
		{"Warn", "warn", LevelWarn, false},
		{"WarningAlias", "warning", LevelWarn, false},
		{"Error", "error", LevelError, false},
		{"Fatal", "fatal", LevelFatal, false},
		{"Raw", "raw", LevelRaw, false},
		{"UpperCase", "ERROR", LevelError, false},
		{"Whitespace", "  info  ", LevelInfo, false},
		{"Unknown", "verbose", LevelInfo, true},
		{"Empty", "", LevelInfo, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			level, err := ParseLevel(tc.input)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, level)
			}
		})
	}
}

func TestLevel_JSONRoundTrip(t *testing.T) {
	t.Run("Marshal", func(t *testing.T) {
		data, err := json.Marshal(LevelWarn)
		require.NoError(t, err)
		assert.Equal(t, `"warn"`, string(data))
	})

	t.Run("Unmarshal", func(t *testing.T) {
		var level Level
		err := json.Unmarshal([]byte(`"error"`), &level)
		require.NoError(t, err)
		assert.Equal(t, LevelError, level)
	})

	t.Run("UnmarshalUnknown", func(t *testing.T) {
		var level Level
		err := json.Unmarshal([]byte(`"loud"`), &level)
		assert.Error(t, err)
	})

	t.Run("UnmarshalNotAString", func(t *testing.T) {
		var level Level
		err := json.Unmarshal([]byte(`3`), &level)
		assert.Error(t, err)
	})
}
