// FILE: logfan/src/internal/sink/sink_test.go
package sink

import (
	"sync"
	"testing"
	"time"

	"logfan/src/internal/core"

	"github.com/lixenwraith/log"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

// waitUntil polls cond until it holds or the deadline passes
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func infoEntry(msg string) *core.LogEntry {
	return &core.LogEntry{
		Timestamp: core.Now(),
		Type:      core.LevelInfo,
		Message:   msg,
	}
}

// errorRecorder collects ErrorFunc reports for assertions
type errorRecorder struct {
	mu      sync.Mutex
	reports []errorReport
}

type errorReport struct {
	err       error
	entry     *core.LogEntry
	attempt   int
	willRetry bool
}

func (r *errorRecorder) fn() ErrorFunc {
	return func(err error, entry *core.LogEntry, attempt int, willRetry bool) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.reports = append(r.reports, errorReport{err, entry, attempt, willRetry})
	}
}

func (r *errorRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

func (r *errorRecorder) snapshot() []errorReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]errorReport(nil), r.reports...)
}
