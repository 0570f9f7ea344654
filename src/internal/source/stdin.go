// FILE: src/internal/source/stdin.go
package source

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"logfan/src/internal/core"

	"github.com/lixenwraith/log"
)

// Reads log entries from standard input. Lines that parse as entry
// objects pass through structured, anything else is wrapped: lines
// with a recognizable severity marker get that level, the rest stay
// raw and reach sinks byte for byte.
type StdinSource struct {
	reader        io.Reader
	subscribers   []chan *core.LogEntry
	done          chan struct{}
	eof           chan struct{}
	totalEntries  atomic.Uint64
	droppedEnt    atomic.Uint64
	bufferSize    int
	startTime     time.Time
	lastEntryTime atomic.Value // time.Time
	logger        *log.Logger
}

func NewStdinSource(bufferSize int, logger *log.Logger) *StdinSource {
	if bufferSize <= 0 {
		bufferSize = core.DefaultBufferSize
	}
	s := &StdinSource{
		reader:      os.Stdin,
		bufferSize:  bufferSize,
		subscribers: make([]chan *core.LogEntry, 0),
		done:        make(chan struct{}),
		eof:         make(chan struct{}),
		logger:      logger,
		startTime:   time.Now(),
	}
	s.lastEntryTime.Store(time.Time{})
	return s
}

// EOF is closed when the input stream ends
func (s *StdinSource) EOF() <-chan struct{} {
	return s.eof
}

func (s *StdinSource) Subscribe() <-chan *core.LogEntry {
	ch := make(chan *core.LogEntry, s.bufferSize)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *StdinSource) Start() error {
	go s.readLoop()
	if s.logger != nil {
		s.logger.Info("msg", "Stdin source started", "component", "stdin_source")
	}
	return nil
}

func (s *StdinSource) Stop() {
	close(s.done)
	for _, ch := range s.subscribers {
		close(ch)
	}
	if s.logger != nil {
		s.logger.Info("msg", "Stdin source stopped", "component", "stdin_source")
	}
}

func (s *StdinSource) GetStats() SourceStats {
	lastEntry, _ := s.lastEntryTime.Load().(time.Time)

	return SourceStats{
		Type:           "stdin",
		TotalEntries:   s.totalEntries.Load(),
		DroppedEntries: s.droppedEnt.Load(),
		StartTime:      s.startTime,
		LastEntryTime:  lastEntry,
		Details:        map[string]any{},
	}
}

func (s *StdinSource) readLoop() {
	defer close(s.eof)

	scanner := bufio.NewScanner(s.reader)
	for scanner.Scan() {
		select {
		case <-s.done:
			return
		default:
			line := scanner.Text()
			if line == "" {
				continue
			}
			s.publish(s.parseLine(line))
		}
	}

	if err := scanner.Err(); err != nil && s.logger != nil {
		s.logger.Error("msg", "Scanner error reading stdin",
			"component", "stdin_source",
			"error", err)
	}
}

// Turns one input line into an entry. A line shaped like a JSON entry
// object is decoded as-is so producers can pipe structured records,
// including exit requests, straight through.
func (s *StdinSource) parseLine(line string) *core.LogEntry {
	if strings.HasPrefix(line, "{") {
		var entry core.LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err == nil &&
			(entry.Message != "" || entry.Template != "") {
			if entry.Timestamp == 0 {
				entry.Timestamp = core.Now()
			}
			return &entry
		}
	}

	level, _ := extractLevel(line)
	return &core.LogEntry{
		Timestamp: core.Now(),
		Type:      level,
		Message:   line,
	}
}

func (s *StdinSource) publish(entry *core.LogEntry) {
	s.totalEntries.Add(1)
	s.lastEntryTime.Store(entry.Time())

	for _, ch := range s.subscribers {
		select {
		case ch <- entry:
		default:
			s.droppedEnt.Add(1)
			if s.logger != nil {
				s.logger.Debug("msg", "Dropped log entry - subscriber buffer full",
					"component", "stdin_source")
			}
		}
	}
}
