// FILE: src/internal/sink/console.go
package sink

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"logfan/src/internal/core"
	"logfan/src/internal/format"

	"github.com/lixenwraith/log"
	"golang.org/x/term"
)

// ANSI level colors, applied only when the target is a terminal
var levelColors = map[core.Level]string{
	core.LevelDebug: "\x1b[90m",
	core.LevelInfo:  "\x1b[36m",
	core.LevelWarn:  "\x1b[33m",
	core.LevelError: "\x1b[31m",
	core.LevelFatal: "\x1b[35m",
}

const colorReset = "\x1b[0m"

// ConsoleConfig holds configuration for console sinks
type ConsoleConfig struct {
	Target   string // "stdout" or "stderr"
	MinLevel core.Level
	Color    bool // force-enable; auto-detected from the TTY otherwise
}

// ConsoleSink writes entries synchronously to stdout or stderr with
// level filtering and optional transformation.
type ConsoleSink struct {
	config    ConsoleConfig
	output    io.Writer
	formatter format.Formatter
	transform TransformFunc
	logger    *log.Logger

	mu        sync.Mutex
	closed    atomic.Bool
	colorize  bool
	startTime time.Time

	// Statistics
	totalProcessed atomic.Uint64
	totalFailed    atomic.Uint64
	lastProcessed  atomic.Value // time.Time
}

// NewConsoleSink creates a console sink for the configured target
func NewConsoleSink(cfg ConsoleConfig, formatter format.Formatter, transform TransformFunc, logger *log.Logger) (*ConsoleSink, error) {
	s := &ConsoleSink{
		config:    cfg,
		formatter: formatter,
		transform: transform,
		logger:    logger,
		startTime: time.Now(),
	}
	s.lastProcessed.Store(time.Time{})

	var fd uintptr
	switch cfg.Target {
	case "", "stdout":
		s.output = os.Stdout
		fd = os.Stdout.Fd()
		s.config.Target = "stdout"
	case "stderr":
		s.output = os.Stderr
		fd = os.Stderr.Fd()
	default:
		return nil, &ConfigError{Option: "target", Value: cfg.Target}
	}

	s.colorize = cfg.Color || term.IsTerminal(int(fd))

	return s, nil
}

// Write formats and delivers one entry to the console
func (s *ConsoleSink) Write(entry *core.LogEntry) error {
	if entry == nil || s.closed.Load() {
		return nil
	}
	if !entry.Type.Meets(s.config.MinLevel) {
		return nil
	}

	if s.transform != nil {
		entry = s.transform(entry.Clone())
		if entry == nil {
			return nil
		}
	}

	formatted, err := s.formatter.Format(entry)
	if err != nil {
		s.totalFailed.Add(1)
		return err
	}

	if s.colorize && entry.Type != core.LevelRaw {
		if color, ok := levelColors[entry.Type]; ok {
			colored := make([]byte, 0, len(formatted)+len(color)+len(colorReset))
			colored = append(colored, color...)
			colored = append(colored, formatted...)
			// Keep the newline after the reset sequence
			if n := len(colored); n > 0 && colored[n-1] == '\n' {
				colored = append(colored[:n-1], colorReset...)
				colored = append(colored, '\n')
			} else {
				colored = append(colored, colorReset...)
			}
			formatted = colored
		}
	}

	s.mu.Lock()
	_, err = s.output.Write(formatted)
	s.mu.Unlock()

	if err != nil {
		s.totalFailed.Add(1)
		return err
	}

	s.totalProcessed.Add(1)
	s.lastProcessed.Store(time.Now())
	return nil
}

// Close marks the sink closed; the console itself is never closed
func (s *ConsoleSink) Close(ctx context.Context) error {
	s.closed.Store(true)
	return nil
}

// GetStats returns the sink's statistics
func (s *ConsoleSink) GetStats() SinkStats {
	lastProc, _ := s.lastProcessed.Load().(time.Time)

	return SinkStats{
		Type:           "console",
		TotalProcessed: s.totalProcessed.Load(),
		TotalFailed:    s.totalFailed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"target":    s.config.Target,
			"min_level": s.config.MinLevel.String(),
			"color":     s.colorize,
		},
	}
}
