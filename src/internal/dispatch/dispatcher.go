// FILE: src/internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"logfan/src/internal/core"
	"logfan/src/internal/sink"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

// ExitDecision is returned by a BeforeExitFunc to steer the exit
// sequence.
type ExitDecision int

const (
	// Proceed lets the dispatcher close sinks and terminate
	Proceed ExitDecision = iota

	// Wait defers termination: another shutdown path owns the exit and
	// will call Exit again to completion
	Wait
)

// BeforeExitFunc runs before sinks are closed on exit. isFirstExit is
// true only for the first Exit call of the process. A returned error or
// a panic counts as Proceed so a broken hook can never hang shutdown.
type BeforeExitFunc func(code int, isFirstExit bool) (ExitDecision, error)

// SinkErrorFunc observes per-sink failures. op is "write" or "close".
type SinkErrorFunc func(err error, op string, s sink.Sink)

// RedactFunc rewrites a params tree before delivery, returning the
// redacted view and the list of keys that matched. Both returns must be
// nil when nothing matched.
type RedactFunc func(params map[string]any) (map[string]any, []string)

// Config holds dispatcher construction options
type Config struct {
	// Initial sink list, fanned out to in registration order
	Sinks []sink.Sink

	// Stamped onto entries that do not carry a service name
	ServiceName string

	// Optional redaction applied to entry params before delivery
	Redact RedactFunc

	// Invoked before sinks close during Exit
	BeforeExit BeforeExitFunc

	// Receives sink write and close failures. Defaults to a throttled
	// operator-visible error log.
	OnSinkError SinkErrorFunc

	// Terminate the process when Exit completes. Nil means enabled.
	CallProcessExit *bool

	// Replaces os.Exit, used by tests to observe termination
	ExitFunc func(code int)

	Logger *log.Logger
}

// Dispatcher fans log entries out to an ordered list of sinks and
// isolates every sink failure from the call site. It also owns the
// process exit sequence for entries that carry an exit code.
type Dispatcher struct {
	mu     sync.Mutex
	sinks  []sink.Sink
	closed bool

	// Exit bookkeeping, guarded by mu
	exitRequested bool
	didExit       bool

	serviceName     string
	redact          RedactFunc
	beforeExit      BeforeExitFunc
	onSinkError     SinkErrorFunc
	callProcessExit bool
	exitFunc        func(code int)
	logger          *log.Logger

	errThrottle rate.Sometimes

	totalDispatched atomic.Uint64
	totalErrors     atomic.Uint64
	startTime       time.Time
}

// New creates a dispatcher over the configured sinks
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		sinks:           append([]sink.Sink(nil), cfg.Sinks...),
		serviceName:     cfg.ServiceName,
		redact:          cfg.Redact,
		beforeExit:      cfg.BeforeExit,
		onSinkError:     cfg.OnSinkError,
		callProcessExit: cfg.CallProcessExit == nil || *cfg.CallProcessExit,
		exitFunc:        cfg.ExitFunc,
		logger:          cfg.Logger,
		errThrottle:     rate.Sometimes{First: 5, Interval: time.Second},
		startTime:       time.Now(),
	}
	if d.exitFunc == nil {
		d.exitFunc = os.Exit
	}
	return d
}

// Dispatch finalizes the entry and writes it through every sink. An
// entry carrying an exit code additionally runs the exit sequence after
// delivery. Safe to call after Close, where it does nothing.
func (d *Dispatcher) Dispatch(entry *core.LogEntry) {
	if entry == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	targets := d.sinks
	d.mu.Unlock()

	d.finalize(entry)
	d.totalDispatched.Add(1)

	for _, s := range targets {
		d.safeWrite(s, entry)
	}

	if entry.ExitCode != nil {
		d.Exit(*entry.ExitCode)
	}
}

// Fills in the derived fields a log call leaves implicit: timestamp,
// service name, rendered message and the redacted params view.
func (d *Dispatcher) finalize(entry *core.LogEntry) {
	if entry.Timestamp == 0 {
		entry.Timestamp = core.Now()
	}
	if entry.ServiceName == "" {
		entry.ServiceName = d.serviceName
	}
	if entry.Message == "" && entry.Template != "" {
		entry.Message = core.Interpolate(entry.Template, entry.Params)
	}
	if d.redact != nil && entry.RedactedParams == nil && len(entry.Params) > 0 {
		redacted, keys := d.redact(entry.Params)
		if len(keys) > 0 {
			entry.RedactedParams = redacted
			entry.RedactedKeys = keys
		}
	}
}

// Delivers to one sink, trapping panics and errors so the remaining
// sinks still receive the entry.
func (d *Dispatcher) safeWrite(s sink.Sink, entry *core.LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			d.reportSinkError(fmt.Errorf("write panic: %v", r), "write", s)
		}
	}()
	if err := s.Write(entry); err != nil {
		d.reportSinkError(err, "write", s)
	}
}

func (d *Dispatcher) reportSinkError(err error, op string, s sink.Sink) {
	d.totalErrors.Add(1)

	if d.onSinkError != nil {
		defer func() {
			if r := recover(); r != nil && d.logger != nil {
				d.logger.Error("msg", "Sink error hook panicked",
					"component", "dispatcher",
					"panic", fmt.Sprint(r))
			}
		}()
		d.onSinkError(err, op, s)
		return
	}

	d.errThrottle.Do(func() {
		kind := "unknown"
		if s != nil {
			kind = s.GetStats().Type
		}
		if d.logger != nil {
			d.logger.Error("msg", "Sink operation failed",
				"component", "dispatcher",
				"sink", kind,
				"op", op,
				"error", err)
		} else {
			fmt.Fprintf(os.Stderr, "logfan: %s sink %s failed: %v\n", kind, op, err)
		}
	})
}

// AddSink appends a sink to the fan-out list
func (d *Dispatcher) AddSink(s sink.Sink) {
	if s == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		if d.logger != nil {
			d.logger.Warn("msg", "AddSink on closed dispatcher ignored",
				"component", "dispatcher")
		}
		return
	}
	d.sinks = append(append([]sink.Sink(nil), d.sinks...), s)
}

// RemoveSink takes the sink out of the fan-out list without closing
// it; the caller owns the removed sink's shutdown. Reports whether the
// sink was present.
func (d *Dispatcher) RemoveSink(s sink.Sink) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.sinks {
		if existing == s {
			replaced := make([]sink.Sink, 0, len(d.sinks)-1)
			replaced = append(replaced, d.sinks[:i]...)
			replaced = append(replaced, d.sinks[i+1:]...)
			d.sinks = replaced
			return true
		}
	}
	return false
}

// Sinks returns a snapshot of the fan-out list
func (d *Dispatcher) Sinks() []sink.Sink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sink.Sink(nil), d.sinks...)
}

// Close stops dispatching and closes every sink concurrently. The sink
// list is cleared only after all closes settle. Subsequent calls are
// no-ops.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	targets := d.sinks
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range targets {
		wg.Add(1)
		go func(s sink.Sink) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.reportSinkError(fmt.Errorf("close panic: %v", r), "close", s)
				}
			}()
			if err := s.Close(ctx); err != nil {
				d.reportSinkError(err, "close", s)
			}
		}(s)
	}
	wg.Wait()

	d.mu.Lock()
	d.sinks = nil
	d.mu.Unlock()
	return nil
}

// Exit runs the shutdown sequence for the given code: consult the
// before-exit hook, close all sinks, then terminate the process unless
// termination is disabled. The first call is marked for the hook; a
// Wait decision leaves completion to a later Exit call.
func (d *Dispatcher) Exit(code int) {
	d.mu.Lock()
	if d.didExit {
		d.mu.Unlock()
		return
	}
	isFirst := !d.exitRequested
	d.exitRequested = true
	d.mu.Unlock()

	if d.runBeforeExit(code, isFirst) == Wait {
		return
	}

	d.Close(context.Background())

	d.mu.Lock()
	d.didExit = true
	callExit := d.callProcessExit
	d.mu.Unlock()

	if callExit {
		d.exitFunc(code)
	}
}

// Runs the hook with panic and error recovery. Any failure means
// Proceed so shutdown cannot hang on a broken hook.
func (d *Dispatcher) runBeforeExit(code int, isFirst bool) (decision ExitDecision) {
	if d.beforeExit == nil {
		return Proceed
	}
	defer func() {
		if r := recover(); r != nil {
			decision = Proceed
			if d.logger != nil {
				d.logger.Error("msg", "Before-exit hook panicked",
					"component", "dispatcher",
					"panic", fmt.Sprint(r))
			}
		}
	}()

	decision, err := d.beforeExit(code, isFirst)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("msg", "Before-exit hook failed",
				"component", "dispatcher",
				"error", err)
		}
		return Proceed
	}
	return decision
}

// DidExit reports whether an exit sequence ran to completion
func (d *Dispatcher) DidExit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.didExit
}

// GetStats returns dispatcher counters and a stats snapshot per sink
func (d *Dispatcher) GetStats() map[string]any {
	d.mu.Lock()
	targets := append([]sink.Sink(nil), d.sinks...)
	closed := d.closed
	d.mu.Unlock()

	sinkStats := make([]map[string]any, 0, len(targets))
	for _, s := range targets {
		stats := s.GetStats()
		sinkStats = append(sinkStats, map[string]any{
			"type":            stats.Type,
			"total_processed": stats.TotalProcessed,
			"total_failed":    stats.TotalFailed,
			"details":         stats.Details,
		})
	}

	return map[string]any{
		"total_dispatched": d.totalDispatched.Load(),
		"total_errors":     d.totalErrors.Load(),
		"closed":           closed,
		"uptime_seconds":   int64(time.Since(d.startTime).Seconds()),
		"sinks":            sinkStats,
	}
}
