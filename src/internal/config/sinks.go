// FILE: src/internal/config/sinks.go
package config

import (
	"fmt"
	"strings"

	"logfan/src/internal/core"
)

// ConsoleSinkOptions configures terminal delivery
type ConsoleSinkOptions struct {
	Enabled bool `toml:"enabled"`

	// "stdout" or "stderr"
	Target string `toml:"target"`

	// Force ANSI level colors even when the target is not a terminal
	Color bool `toml:"color"`

	MinLevel string `toml:"min_level"`
}

func (o *ConsoleSinkOptions) validate() error {
	if !o.Enabled {
		return nil
	}
	switch o.Target {
	case "", "stdout", "stderr":
	default:
		return fmt.Errorf("console: invalid target '%s' (valid: stdout, stderr)", o.Target)
	}
	if err := validateLevel("console", o.MinLevel); err != nil {
		return err
	}
	return nil
}

// FileSinkOptions configures rotating file delivery
type FileSinkOptions struct {
	Enabled bool `toml:"enabled"`

	Directory string `toml:"directory"`
	Basename  string `toml:"basename"`

	// Rotation threshold, fractional values allowed
	MaxSizeMB float64 `toml:"max_size_mb"`

	// JSON lines instead of plain text
	JSON bool `toml:"json"`

	MaxRetries     int   `toml:"max_retries"`
	CloseTimeoutMS int64 `toml:"close_timeout_ms"`

	MinLevel string `toml:"min_level"`
}

func (o *FileSinkOptions) validate() error {
	if !o.Enabled {
		return nil
	}
	if o.Directory == "" {
		return fmt.Errorf("file: directory cannot be empty")
	}
	if o.Basename == "" {
		return fmt.Errorf("file: basename cannot be empty")
	}
	if strings.ContainsAny(o.Basename, "/\\") {
		return fmt.Errorf("file: basename must not contain path separators: %s", o.Basename)
	}
	if o.MaxSizeMB <= 0 {
		return fmt.Errorf("file: max_size_mb must be positive: %v", o.MaxSizeMB)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("file: max_retries cannot be negative: %d", o.MaxRetries)
	}
	if o.CloseTimeoutMS < 0 {
		return fmt.Errorf("file: close_timeout_ms cannot be negative: %d", o.CloseTimeoutMS)
	}
	if err := validateLevel("file", o.MinLevel); err != nil {
		return err
	}
	return nil
}

// PipeSinkOptions configures named pipe delivery
type PipeSinkOptions struct {
	Enabled bool `toml:"enabled"`

	// Filesystem path of an existing FIFO
	Path string `toml:"path"`

	// JSON lines instead of plain text
	JSON bool `toml:"json"`

	CloseTimeoutMS int64 `toml:"close_timeout_ms"`
}

func (o *PipeSinkOptions) validate() error {
	if !o.Enabled {
		return nil
	}
	if o.Path == "" {
		return fmt.Errorf("pipe: path cannot be empty")
	}
	if o.CloseTimeoutMS < 0 {
		return fmt.Errorf("pipe: close_timeout_ms cannot be negative: %d", o.CloseTimeoutMS)
	}
	return nil
}

// TCPSinkOptions configures the TCP streaming server
type TCPSinkOptions struct {
	Enabled bool `toml:"enabled"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	BufferSize int `toml:"buffer_size"`

	// JSON lines instead of plain text
	JSON bool `toml:"json"`

	// Heartbeat interval, zero disables
	HeartbeatMS int64 `toml:"heartbeat_ms"`

	// Attach connection counters to heartbeats
	HeartbeatStats bool `toml:"heartbeat_stats"`

	MinLevel string `toml:"min_level"`
}

func (o *TCPSinkOptions) validate() error {
	if !o.Enabled {
		return nil
	}
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("tcp: invalid port: %d", o.Port)
	}
	if o.BufferSize < 1 {
		return fmt.Errorf("tcp: buffer_size must be positive: %d", o.BufferSize)
	}
	if o.HeartbeatMS < 0 {
		return fmt.Errorf("tcp: heartbeat_ms cannot be negative: %d", o.HeartbeatMS)
	}
	if err := validateLevel("tcp", o.MinLevel); err != nil {
		return err
	}
	return nil
}

// HTTPSinkOptions configures batched HTTP forwarding
type HTTPSinkOptions struct {
	Enabled bool `toml:"enabled"`

	URL string `toml:"url"`

	BufferSize   int   `toml:"buffer_size"`
	BatchSize    int   `toml:"batch_size"`
	BatchDelayMS int64 `toml:"batch_delay_ms"`
	TimeoutSec   int64 `toml:"timeout_sec"`

	MaxRetries   int     `toml:"max_retries"`
	RetryDelayMS int64   `toml:"retry_delay_ms"`
	RetryBackoff float64 `toml:"retry_backoff"`

	InsecureSkipVerify bool `toml:"insecure_skip_verify"`

	// Newline-joined plain text body instead of a JSON array
	Plain bool `toml:"plain"`

	MinLevel string `toml:"min_level"`
}

func (o *HTTPSinkOptions) validate() error {
	if !o.Enabled {
		return nil
	}
	if !strings.HasPrefix(o.URL, "http://") && !strings.HasPrefix(o.URL, "https://") {
		return fmt.Errorf("http: url must start with http:// or https://: %s", o.URL)
	}
	if o.BufferSize < 1 {
		return fmt.Errorf("http: buffer_size must be positive: %d", o.BufferSize)
	}
	if o.BatchSize < 1 {
		return fmt.Errorf("http: batch_size must be positive: %d", o.BatchSize)
	}
	if o.BatchDelayMS < 1 {
		return fmt.Errorf("http: batch_delay_ms must be positive: %d", o.BatchDelayMS)
	}
	if o.TimeoutSec < 1 {
		return fmt.Errorf("http: timeout_sec must be positive: %d", o.TimeoutSec)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("http: max_retries cannot be negative: %d", o.MaxRetries)
	}
	if o.RetryBackoff < 1 {
		return fmt.Errorf("http: retry_backoff must be at least 1: %v", o.RetryBackoff)
	}
	if err := validateLevel("http", o.MinLevel); err != nil {
		return err
	}
	return nil
}

func validateLevel(section, level string) error {
	if level == "" {
		return nil
	}
	if _, err := core.ParseLevel(level); err != nil {
		return fmt.Errorf("%s: %w", section, err)
	}
	return nil
}
