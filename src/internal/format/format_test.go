// FILE: logfan/src/internal/format/format_test.go
package format

import (
	"errors"
	"testing"

	"logfan/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name        string
		formatName  string
		expected    string
		expectError bool
	}{
		{
			name:       "PlainFormatter",
			formatName: "plain",
			expected:   "plain",
		},
		{
			name:       "JSONFormatter",
			formatName: "json",
			expected:   "json",
		},
		{
			name:       "DefaultToPlain",
			formatName: "",
			expected:   "plain",
		},
		{
			name:        "UnknownFormatter",
			formatName:  "xml",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			formatter, err := New(tc.formatName)
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, formatter)
			} else {
				require.NoError(t, err)
				require.NotNil(t, formatter)
				assert.Equal(t, tc.expected, formatter.Name())
			}
		})
	}
}

func TestFunc(t *testing.T) {
	entry := &core.LogEntry{Type: core.LevelInfo, Message: "hello"}

	t.Run("AppendsNewline", func(t *testing.T) {
		fn := Func(func(e *core.LogEntry) (string, error) {
			return "custom: " + e.Message, nil
		})

		line, err := fn.Format(entry)
		require.NoError(t, err)
		assert.Equal(t, "custom: hello\n", string(line))
		assert.Equal(t, "custom", fn.Name())
	})

	t.Run("PropagatesError", func(t *testing.T) {
		fn := Func(func(e *core.LogEntry) (string, error) {
			return "", errors.New("no format for you")
		})

		line, err := fn.Format(entry)
		assert.Error(t, err)
		assert.Nil(t, line)
	})
}
