// FILE: src/internal/sink/file.go
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"logfan/src/internal/core"
	"logfan/src/internal/format"

	"github.com/lixenwraith/log"
)

// FileConfig holds configuration for the durable file sink
type FileConfig struct {
	// Directory log files are written to, created on first use
	LogDir string

	// Base name of the log file, date and rotation suffixes are appended
	Basename string

	// Rotation threshold in megabytes, fractional values allowed
	MaxSizeMB float64

	// Emit JSON lines instead of plain text
	JSONFormat bool

	// Retries after the first failed attempt before an entry is dropped
	MaxRetries int

	// Upper bound on waiting for the queue to drain during Close
	CloseTimeout time.Duration

	// Entries below this level are skipped
	MinLevel core.Level

	// Invoked once per failed write attempt
	OnError ErrorFunc

	// Optional transform applied before formatting
	Transform TransformFunc

	// Delay schedule between retry attempts, nil means no delay
	Backoff BackoffStrategy
}

// queuedWrite is a pending entry with its failed-attempt count
type queuedWrite struct {
	entry   *core.LogEntry
	attempt int
}

// FileHealth is a point-in-time snapshot of sink condition
type FileHealth struct {
	IsHealthy           bool
	IsInitialized       bool
	QueueSize           int
	ConsecutiveFailures int
	LastError           error
}

// FlushResult reports queue activity observed during a Flush call
type FlushResult struct {
	Written  uint64
	Failed   uint64
	TimedOut bool
}

// FileSink writes entries to size- and date-rotated files through an
// internal queue. Every write is asynchronous, failed writes are retried
// at the queue tail until the retry budget is spent.
type FileSink struct {
	config    FileConfig
	formatter format.Formatter
	logger    *log.Logger

	// Guards queue, processing, closed, initialized and health fields
	mu          sync.Mutex
	queue       []queuedWrite
	processing  bool
	closed      bool
	initialized bool

	consecutiveFailures int
	lastError           error

	// Guards the stream fields, held across delivery and teardown
	fileMu   sync.Mutex
	file     *os.File
	fileDate string
	fileSize int64

	drained chan struct{}

	startTime     time.Time
	totalWritten  atomic.Uint64
	totalFailed   atomic.Uint64
	lastProcessed atomic.Value
}

// NewFileSink creates a file sink and starts directory initialization
// in the background. Writes accepted before initialization completes are
// queued and delivered once the directory exists.
func NewFileSink(cfg FileConfig, logger *log.Logger) (*FileSink, error) {
	if cfg.LogDir == "" {
		return nil, &ConfigError{Option: "log_dir", Value: cfg.LogDir}
	}
	if cfg.Basename == "" {
		return nil, &ConfigError{Option: "basename", Value: cfg.Basename}
	}
	if cfg.MaxSizeMB < 0 {
		return nil, &ConfigError{Option: "max_size_mb", Value: cfg.MaxSizeMB}
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxRetries < 0 {
		return nil, &ConfigError{Option: "max_retries", Value: cfg.MaxRetries}
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = core.DefaultCloseTimeout
	}
	if cfg.Backoff == nil {
		cfg.Backoff = NoBackoff{}
	}

	formatterName := "plain"
	if cfg.JSONFormat {
		formatterName = "json"
	}
	formatter, err := format.New(formatterName)
	if err != nil {
		return nil, err
	}

	s := &FileSink{
		config:    cfg,
		formatter: formatter,
		logger:    logger,
		startTime: time.Now(),
	}
	s.lastProcessed.Store(time.Time{})

	go s.initialize()
	return s, nil
}

// Performs directory creation off the caller's goroutine. Entries queued
// in the meantime are picked up as soon as the directory is ready.
func (s *FileSink) initialize() {
	err := os.MkdirAll(s.config.LogDir, 0755)

	s.mu.Lock()
	if err != nil {
		s.lastError = fmt.Errorf("log directory init: %w", err)
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Error("msg", "File sink initialization failed",
				"component", "file_sink",
				"log_dir", s.config.LogDir,
				"error", err)
		}
		if s.config.OnError != nil {
			s.config.OnError(err, nil, 0, false)
		}
		return
	}
	s.initialized = true
	pending := len(s.queue) > 0 && !s.processing && !s.closed
	if pending {
		s.processing = true
	}
	s.mu.Unlock()

	if pending {
		go s.processQueue()
	}
}

// Write enqueues the entry and triggers delivery. It never blocks on disk
// and never returns a delivery error, failures surface through OnError.
func (s *FileSink) Write(entry *core.LogEntry) error {
	if entry == nil {
		return nil
	}
	if !entry.Type.Meets(s.config.MinLevel) {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.queue = append(s.queue, queuedWrite{entry: entry})
	start := s.initialized && !s.processing
	if start {
		s.processing = true
	}
	s.mu.Unlock()

	if start {
		go s.processQueue()
	}
	return nil
}

// Drains the queue one entry at a time. Only one instance runs at any
// moment, the processing flag is the re-entrancy guard.
func (s *FileSink) processQueue() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.processing = false
			if s.drained != nil {
				close(s.drained)
				s.drained = nil
			}
			s.mu.Unlock()
			return
		}
		qw := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		err := s.deliver(qw.entry)
		now := time.Now()
		s.lastProcessed.Store(now)

		if err == nil {
			s.totalWritten.Add(1)
			s.mu.Lock()
			s.consecutiveFailures = 0
			s.mu.Unlock()
			continue
		}

		attempt := qw.attempt + 1
		willRetry := attempt <= s.config.MaxRetries

		s.mu.Lock()
		s.consecutiveFailures++
		s.lastError = err
		if willRetry {
			s.queue = append(s.queue, queuedWrite{entry: qw.entry, attempt: attempt})
		}
		s.mu.Unlock()

		if s.config.OnError != nil {
			s.config.OnError(err, qw.entry, attempt, willRetry)
		}

		if !willRetry {
			s.totalFailed.Add(1)
			if s.logger != nil {
				s.logger.Error("msg", "Log entry dropped after retries",
					"component", "file_sink",
					"attempts", attempt,
					"error", err)
			}
			continue
		}

		if delay := s.config.Backoff.Delay(attempt); delay > 0 {
			time.Sleep(delay)
		}
	}
}

// Formats and writes a single entry, rotating first when needed. A failed
// stream is torn down so the next attempt starts from a fresh handle.
func (s *FileSink) deliver(entry *core.LogEntry) error {
	out := entry
	if s.config.Transform != nil {
		out = s.config.Transform(entry.Clone())
		if out == nil {
			return nil
		}
	}

	line, err := s.formatter.Format(out)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	if err := s.ensureStream(int64(len(line))); err != nil {
		return err
	}

	n, err := s.file.Write(line)
	if err != nil {
		s.file.Close()
		s.file = nil
		s.fileSize = 0
		return fmt.Errorf("write %s: %w", s.currentPath(), err)
	}
	s.fileSize += int64(n)
	return nil
}

// Opens or rotates the stream so the pending write of the given size
// lands in a file that is on today's date and under the size limit.
// Caller holds fileMu.
func (s *FileSink) ensureStream(pending int64) error {
	date := time.Now().UTC().Format("2006-01-02")

	if s.file != nil && s.fileDate != date {
		s.file.Close()
		s.file = nil
		s.fileSize = 0
	}

	if s.file != nil && s.fileSize > 0 && s.fileSize+pending > s.maxBytes() {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	if s.file == nil {
		s.fileDate = date
		path := s.currentPath()
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return fmt.Errorf("stat %s: %w", path, err)
		}
		s.file = f
		s.fileSize = info.Size()

		// Resumed file may already be at the limit
		if s.fileSize > 0 && s.fileSize+pending > s.maxBytes() {
			if err := s.rotate(); err != nil {
				return err
			}
			f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			s.file = f
			s.fileSize = 0
		}
	}
	return nil
}

// Renames the active file out of the way with an epoch suffix and clears
// the stream so the caller reopens the canonical name. Caller holds fileMu.
func (s *FileSink) rotate() error {
	path := s.currentPath()
	s.file.Close()
	s.file = nil
	s.fileSize = 0

	epoch := time.Now().Unix()
	target := s.rotatedPath(epoch)
	for {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		// Same-second rotation, advance until the name is free
		epoch++
		target = s.rotatedPath(epoch)
	}

	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("rotate %s: %w", path, err)
	}

	if s.logger != nil {
		s.logger.Debug("msg", "Rotated log file",
			"component", "file_sink",
			"from", path,
			"to", target)
	}
	return nil
}

func (s *FileSink) maxBytes() int64 {
	return int64(s.config.MaxSizeMB * 1000 * 1000)
}

func (s *FileSink) currentPath() string {
	name := fmt.Sprintf("%s-%s.log", s.config.Basename, s.fileDate)
	return filepath.Join(s.config.LogDir, name)
}

func (s *FileSink) rotatedPath(epoch int64) string {
	name := fmt.Sprintf("%s-%s-%d.log", s.config.Basename, s.fileDate, epoch)
	return filepath.Join(s.config.LogDir, name)
}

// GetHealth reports sink condition without touching the filesystem
func (s *FileSink) GetHealth() FileHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FileHealth{
		IsHealthy:           s.initialized && s.consecutiveFailures == 0,
		IsInitialized:       s.initialized,
		QueueSize:           len(s.queue),
		ConsecutiveFailures: s.consecutiveFailures,
		LastError:           s.lastError,
	}
}

// Flush waits for the queue to drain and reports how many entries were
// written and dropped while waiting. TimedOut is set when the queue still
// had entries in flight at the deadline.
func (s *FileSink) Flush(timeout time.Duration) FlushResult {
	startWritten := s.totalWritten.Load()
	startFailed := s.totalFailed.Load()
	deadline := time.Now().Add(timeout)

	for {
		s.mu.Lock()
		idle := len(s.queue) == 0 && !s.processing
		s.mu.Unlock()
		if idle {
			break
		}
		if time.Now().After(deadline) {
			return FlushResult{
				Written:  s.totalWritten.Load() - startWritten,
				Failed:   s.totalFailed.Load() - startFailed,
				TimedOut: true,
			}
		}
		time.Sleep(core.DefaultFlushPoll)
	}

	return FlushResult{
		Written: s.totalWritten.Load() - startWritten,
		Failed:  s.totalFailed.Load() - startFailed,
	}
}

// Close stops accepting writes, waits for pending entries bounded by the
// close timeout and the context, then finalizes the stream. Safe to call
// more than once.
func (s *FileSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var drained chan struct{}
	if s.processing || len(s.queue) > 0 {
		if s.initialized {
			drained = make(chan struct{})
			s.drained = drained
			if !s.processing {
				s.processing = true
				go s.processQueue()
			}
		} else if s.logger != nil {
			s.logger.Warn("msg", "Closing uninitialized file sink with queued entries",
				"component", "file_sink",
				"queued", len(s.queue))
		}
	}
	s.mu.Unlock()

	if drained != nil {
		timer := time.NewTimer(s.config.CloseTimeout)
		defer timer.Stop()
		select {
		case <-drained:
		case <-timer.C:
			if s.logger != nil {
				s.logger.Warn("msg", "File sink close timed out with entries queued",
					"component", "file_sink")
			}
		case <-ctx.Done():
		}
	}

	s.fileMu.Lock()
	if s.file != nil {
		s.file.Close()
		s.file = nil
		s.fileSize = 0
	}
	s.fileMu.Unlock()

	if s.logger != nil {
		s.logger.Debug("msg", "File sink closed",
			"component", "file_sink",
			"total_written", s.totalWritten.Load(),
			"total_failed", s.totalFailed.Load())
	}
	return nil
}

// GetStats returns current sink statistics
func (s *FileSink) GetStats() SinkStats {
	health := s.GetHealth()
	return SinkStats{
		Type:           "file",
		TotalProcessed: s.totalWritten.Load(),
		TotalFailed:    s.totalFailed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  s.lastProcessed.Load().(time.Time),
		Details: map[string]any{
			"log_dir":     s.config.LogDir,
			"basename":    s.config.Basename,
			"max_size_mb": s.config.MaxSizeMB,
			"queue_size":  health.QueueSize,
			"healthy":     health.IsHealthy,
			"initialized": health.IsInitialized,
		},
	}
}
