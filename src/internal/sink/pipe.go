// FILE: src/internal/sink/pipe.go
package sink

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"logfan/src/internal/core"
	"logfan/src/internal/format"

	"github.com/lixenwraith/log"
)

// ConnectionState tracks the pipe connection lifecycle
type ConnectionState int32

const (
	StateUninitialized ConnectionState = iota
	StateInitializing
	StateReady
	StateReconnecting
	StateClosed
	// StateUnsupported is terminal, entered once on platforms without
	// FIFO support
	StateUnsupported
)

var stateNames = map[ConnectionState]string{
	StateUninitialized: "uninitialized",
	StateInitializing:  "initializing",
	StateReady:         "ready",
	StateReconnecting:  "reconnecting",
	StateClosed:        "closed",
	StateUnsupported:   "unsupported",
}

func (s ConnectionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Pipe error kinds, carried on every PipeError handed to OnError
const (
	ErrKindWrite       = "write"
	ErrKindClose       = "close"
	ErrKindNotFound    = "not_found"
	ErrKindNotAPipe    = "not_a_pipe"
	ErrKindPermission  = "permission"
	ErrKindUnsupported = "unsupported_platform"
)

// PipeError wraps a pipe failure with its kind and target path
type PipeError struct {
	Kind string
	Path string
	Err  error
}

func (e *PipeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pipe %s (%s): %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("pipe %s (%s)", e.Kind, e.Path)
}

func (e *PipeError) Unwrap() error {
	return e.Err
}

// PipeConfig holds configuration for the named pipe sink
type PipeConfig struct {
	// Filesystem path of the FIFO, must already exist
	Path string

	// Emit JSON lines instead of plain text
	JSONFormat bool

	// Upper bound on waiting for the queue to drain during Close
	CloseTimeout time.Duration

	// Optional formatter overriding the default line format. A failing
	// or panicking formatter falls back to the default for that entry.
	Formatter format.Formatter

	// Invoked on connection and delivery failures
	OnError ErrorFunc
}

// PipeSink delivers entries to a named pipe, tolerating absent and
// disconnecting readers. Writes are queued while no connection exists
// and flushed in order once the pipe opens; a broken connection stops
// delivery until Reconnect is called.
type PipeSink struct {
	config    PipeConfig
	fallback  format.Formatter
	logger    *log.Logger

	state   atomic.Int32
	closing atomic.Bool

	// Guards queue, draining and the pipe handle
	mu       sync.Mutex
	queue    []*core.LogEntry
	draining bool
	pipe     *os.File

	// Held while an initialization or reconnect cycle is in flight,
	// capacity one
	gate chan struct{}

	stop     chan struct{}
	stopOnce sync.Once

	startTime     time.Time
	totalWritten  atomic.Uint64
	totalFailed   atomic.Uint64
	lastProcessed atomic.Value
}

// NewPipeSink creates a pipe sink and starts connecting in the
// background. Entries written before the pipe opens are queued.
func NewPipeSink(cfg PipeConfig, logger *log.Logger) (*PipeSink, error) {
	if cfg.Path == "" {
		return nil, &ConfigError{Option: "pipe_path", Value: cfg.Path}
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = core.DefaultCloseTimeout
	}

	formatterName := "plain"
	if cfg.JSONFormat {
		formatterName = "json"
	}
	fallback, err := format.New(formatterName)
	if err != nil {
		return nil, err
	}

	s := &PipeSink{
		config:    cfg,
		fallback:  fallback,
		logger:    logger,
		gate:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		startTime: time.Now(),
	}
	s.lastProcessed.Store(time.Time{})
	s.state.Store(int32(StateUninitialized))

	s.gate <- struct{}{}
	go s.initialize()
	return s, nil
}

// Runs the first connection cycle. The gate is already held by the
// constructor so a concurrent Reconnect reports already_reconnecting.
func (s *PipeSink) initialize() {
	defer func() { <-s.gate }()

	perr := s.connect(StateInitializing)
	if perr == nil {
		return
	}
	if perr.Kind == ErrKindUnsupported {
		s.state.Store(int32(StateUnsupported))
	}
	s.reportError(perr)
	if s.logger != nil {
		s.logger.Warn("msg", "Pipe sink initialization failed",
			"component", "pipe_sink",
			"path", s.config.Path,
			"kind", perr.Kind,
			"error", perr.Err)
	}
}

// Performs one stat and open cycle, transitioning to Ready on success
// and starting a drain if entries queued up in the meantime. Callers
// hold the gate.
func (s *PipeSink) connect(during ConnectionState) *PipeError {
	s.state.Store(int32(during))

	pipe, perr := openPipe(s.config.Path, s.stop)
	if perr != nil {
		s.state.Store(int32(StateUninitialized))
		return perr
	}
	if pipe == nil {
		// Aborted by Close while waiting for a reader
		s.state.Store(int32(StateUninitialized))
		return nil
	}

	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		pipe.Close()
		s.state.Store(int32(StateUninitialized))
		return nil
	}
	s.pipe = pipe
	s.state.Store(int32(StateReady))
	start := len(s.queue) > 0 && !s.draining
	if start {
		s.draining = true
	}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("msg", "Pipe connected",
			"component", "pipe_sink",
			"path", s.config.Path)
	}
	if start {
		go s.drainQueue()
	}
	return nil
}

// Write enqueues the entry for delivery. It never blocks on the pipe:
// the drain goroutine absorbs OS backpressure while callers continue.
func (s *PipeSink) Write(entry *core.LogEntry) error {
	if entry == nil {
		return nil
	}
	if s.closing.Load() {
		return nil
	}
	switch ConnectionState(s.state.Load()) {
	case StateClosed, StateUnsupported:
		return nil
	}

	s.mu.Lock()
	s.queue = append(s.queue, entry)
	start := ConnectionState(s.state.Load()) == StateReady && !s.draining
	if start {
		s.draining = true
	}
	s.mu.Unlock()

	if start {
		go s.drainQueue()
	}
	return nil
}

// Drains queued entries strictly in order. A write failure tears the
// connection down, requeues the entry at the tail and reports a single
// error; delivery stays paused until Reconnect.
func (s *PipeSink) drainQueue() {
	for {
		s.mu.Lock()
		if ConnectionState(s.state.Load()) != StateReady || len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		entry := s.queue[0]
		s.queue = s.queue[1:]
		pipe := s.pipe
		s.mu.Unlock()

		line := s.formatEntry(entry)
		_, err := pipe.Write(line)
		s.lastProcessed.Store(time.Now())

		if err == nil {
			s.totalWritten.Add(1)
			continue
		}

		s.mu.Lock()
		if s.closing.Load() {
			// Teardown raced with delivery, the entry is lost
			s.totalFailed.Add(1)
			s.draining = false
			s.mu.Unlock()
		} else {
			s.queue = append(s.queue, entry)
			if s.pipe == pipe {
				s.pipe = nil
			}
			s.draining = false
			s.state.CompareAndSwap(int32(StateReady), int32(StateUninitialized))
			s.mu.Unlock()
			pipe.Close()
		}

		s.reportError(&PipeError{Kind: ErrKindWrite, Path: s.config.Path, Err: err})
		if s.logger != nil {
			s.logger.Warn("msg", "Pipe write failed, delivery paused",
				"component", "pipe_sink",
				"path", s.config.Path,
				"error", err)
		}
		return
	}
}

// Formats one entry, falling back to the default format when the
// custom formatter errors or panics.
func (s *PipeSink) formatEntry(entry *core.LogEntry) []byte {
	if s.config.Formatter != nil {
		line, err := safeFormat(s.config.Formatter, entry)
		if err == nil {
			return line
		}
		if s.logger != nil {
			s.logger.Warn("msg", "Custom pipe formatter failed, using default",
				"component", "pipe_sink",
				"error", err)
		}
	}
	line, err := s.fallback.Format(entry)
	if err != nil {
		return append([]byte(entry.Message), '\n')
	}
	return line
}

func safeFormat(f format.Formatter, entry *core.LogEntry) (line []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatter panic: %v", r)
		}
	}()
	return f.Format(entry)
}

// Reconnect closes any existing handle and runs a fresh connection
// cycle. Only one cycle may be in flight: a concurrent call returns
// ErrAlreadyReconnecting with no side effects.
func (s *PipeSink) Reconnect() error {
	switch ConnectionState(s.state.Load()) {
	case StateClosed:
		return nil
	case StateUnsupported:
		return &PipeError{Kind: ErrKindUnsupported, Path: s.config.Path, Err: ErrUnsupportedPlatform}
	}

	select {
	case s.gate <- struct{}{}:
	default:
		return ErrAlreadyReconnecting
	}
	defer func() { <-s.gate }()

	if s.closing.Load() {
		return nil
	}

	s.mu.Lock()
	old := s.pipe
	s.pipe = nil
	s.mu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil {
			s.reportError(&PipeError{Kind: ErrKindClose, Path: s.config.Path, Err: err})
		}
	}

	perr := s.connect(StateReconnecting)
	if perr != nil {
		s.reportError(perr)
		return perr
	}
	return nil
}

// Close stops accepting writes, waits for queued entries while the
// connection is healthy, then tears the stream down. Entries still
// queued at the deadline are dropped and counted as failed.
func (s *PipeSink) Close(ctx context.Context) error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}

	deadline := time.Now().Add(s.config.CloseTimeout)
	for ConnectionState(s.state.Load()) == StateReady {
		s.mu.Lock()
		idle := len(s.queue) == 0 && !s.draining
		s.mu.Unlock()
		if idle {
			break
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			if s.logger != nil {
				s.logger.Warn("msg", "Pipe sink close timed out with entries queued",
					"component", "pipe_sink",
					"path", s.config.Path)
			}
			break
		}
		time.Sleep(core.DefaultFlushPoll)
	}

	// Abort a connection cycle stuck waiting for a reader, then wait
	// for the cycle to release the gate
	s.stopOnce.Do(func() { close(s.stop) })
	s.gate <- struct{}{}
	defer func() { <-s.gate }()

	s.mu.Lock()
	pipe := s.pipe
	s.pipe = nil
	dropped := len(s.queue)
	s.queue = nil
	s.mu.Unlock()

	if dropped > 0 {
		s.totalFailed.Add(uint64(dropped))
		if s.logger != nil {
			s.logger.Warn("msg", "Dropped queued entries at pipe close",
				"component", "pipe_sink",
				"dropped", dropped)
		}
	}

	var closeErr error
	if pipe != nil {
		if err := pipe.Close(); err != nil {
			perr := &PipeError{Kind: ErrKindClose, Path: s.config.Path, Err: err}
			s.reportError(perr)
			closeErr = perr
		}
	}

	if ConnectionState(s.state.Load()) != StateUnsupported {
		s.state.Store(int32(StateClosed))
	}
	if s.logger != nil {
		s.logger.Debug("msg", "Pipe sink closed",
			"component", "pipe_sink",
			"total_written", s.totalWritten.Load(),
			"total_failed", s.totalFailed.Load())
	}
	return closeErr
}

// State returns the current connection state
func (s *PipeSink) State() ConnectionState {
	return ConnectionState(s.state.Load())
}

func (s *PipeSink) reportError(perr *PipeError) {
	if s.config.OnError != nil {
		s.config.OnError(perr, nil, 0, false)
	}
}

// GetStats returns current sink statistics
func (s *PipeSink) GetStats() SinkStats {
	s.mu.Lock()
	queued := len(s.queue)
	s.mu.Unlock()

	return SinkStats{
		Type:           "pipe",
		TotalProcessed: s.totalWritten.Load(),
		TotalFailed:    s.totalFailed.Load(),
		StartTime:      s.startTime,
		LastProcessed:  s.lastProcessed.Load().(time.Time),
		Details: map[string]any{
			"path":       s.config.Path,
			"state":      s.State().String(),
			"queue_size": queued,
		},
	}
}
