// FILE: src/internal/sink/tcp.go
package sink

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"logfan/src/internal/core"
	"logfan/src/internal/format"

	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/panjf2000/gnet/v2"
)

// TCPConfig holds configuration for the TCP streaming sink
type TCPConfig struct {
	Host string
	Port int

	// Entries buffered between Write and the broadcast loop
	BufferSize int

	// Emit JSON lines instead of plain text
	JSONFormat bool

	// Entries below this level are skipped
	MinLevel core.Level

	// Heartbeat interval, zero disables heartbeats
	Heartbeat time.Duration

	// Attach connection and uptime counters to heartbeat entries
	HeartbeatStats bool

	// Invoked when an entry is dropped on a full buffer
	OnError ErrorFunc
}

// TCPSink streams formatted entries to every connected TCP client.
// Clients are plain line consumers, anything they send is discarded.
type TCPSink struct {
	config    TCPConfig
	formatter format.Formatter
	logger    *log.Logger

	server   *tcpServer
	engine   *gnet.Engine
	engineMu sync.Mutex

	input chan *core.LogEntry

	closed atomic.Bool
	done   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startTime      time.Time
	activeConns    atomic.Int64
	totalProcessed atomic.Uint64
	totalFailed    atomic.Uint64
	lastProcessed  atomic.Value

	writeErrors            atomic.Uint64
	consecutiveWriteErrors map[gnet.Conn]int
	errorMu                sync.Mutex
}

// NewTCPSink creates the sink and starts its server. The returned sink
// is already accepting client connections.
func NewTCPSink(cfg TCPConfig, logger *log.Logger) (*TCPSink, error) {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, &ConfigError{Option: "port", Value: cfg.Port}
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = core.DefaultBufferSize
	}

	formatterName := "plain"
	if cfg.JSONFormat {
		formatterName = "json"
	}
	formatter, err := format.New(formatterName)
	if err != nil {
		return nil, err
	}

	t := &TCPSink{
		config:                 cfg,
		formatter:              formatter,
		logger:                 logger,
		input:                  make(chan *core.LogEntry, cfg.BufferSize),
		done:                   make(chan struct{}),
		startTime:              time.Now(),
		consecutiveWriteErrors: make(map[gnet.Conn]int),
	}
	t.lastProcessed.Store(time.Time{})

	if err := t.start(); err != nil {
		return nil, err
	}
	return t, nil
}

// Boots the gnet server and the broadcast loop, failing fast when the
// listener cannot bind.
func (t *TCPSink) start() error {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.server = &tcpServer{
		sink:    t,
		clients: make(map[gnet.Conn]*tcpClient),
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.broadcastLoop(ctx)
	}()

	addr := fmt.Sprintf("tcp://%s:%d", t.config.Host, t.config.Port)
	gnetLogger := compat.NewGnetAdapter(t.logger)

	opts := []gnet.Option{
		gnet.WithLogger(gnetLogger),
		gnet.WithMulticore(true),
		gnet.WithReusePort(true),
	}

	errChan := make(chan error, 1)
	go func() {
		if t.logger != nil {
			t.logger.Info("msg", "Starting TCP server",
				"component", "tcp_sink",
				"port", t.config.Port)
		}
		err := gnet.Run(t.server, addr, opts...)
		if err != nil && t.logger != nil {
			t.logger.Error("msg", "TCP server failed",
				"component", "tcp_sink",
				"port", t.config.Port,
				"error", err)
		}
		errChan <- err
	}()

	go func() {
		<-ctx.Done()
		t.engineMu.Lock()
		if t.engine != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			(*t.engine).Stop(shutdownCtx)
		}
		t.engineMu.Unlock()
	}()

	// Give the listener a moment to bind or fail
	select {
	case err := <-errChan:
		cancel()
		close(t.done)
		t.wg.Wait()
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Write buffers the entry for broadcast. A full buffer drops the entry
// rather than blocking the caller.
func (t *TCPSink) Write(entry *core.LogEntry) error {
	if entry == nil || t.closed.Load() {
		return nil
	}
	if !entry.Type.Meets(t.config.MinLevel) {
		return nil
	}

	select {
	case t.input <- entry:
	default:
		t.totalFailed.Add(1)
		if t.config.OnError != nil {
			t.config.OnError(ErrBufferFull, entry, 1, false)
		}
	}
	return nil
}

// Close stops the server, the broadcast loop, and disconnects clients
func (t *TCPSink) Close(ctx context.Context) error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	if t.logger != nil {
		t.logger.Info("msg", "Stopping TCP sink", "component", "tcp_sink")
	}

	close(t.done)
	t.cancel()

	t.engineMu.Lock()
	engine := t.engine
	t.engineMu.Unlock()
	if engine != nil {
		stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		(*engine).Stop(stopCtx)
	}

	t.wg.Wait()
	return nil
}

// GetStats returns current sink statistics
func (t *TCPSink) GetStats() SinkStats {
	lastProc, _ := t.lastProcessed.Load().(time.Time)
	return SinkStats{
		Type:              "tcp",
		TotalProcessed:    t.totalProcessed.Load(),
		TotalFailed:       t.totalFailed.Load(),
		ActiveConnections: t.activeConns.Load(),
		StartTime:         t.startTime,
		LastProcessed:     lastProc,
		Details: map[string]any{
			"port":         t.config.Port,
			"buffer_size":  t.config.BufferSize,
			"write_errors": t.writeErrors.Load(),
		},
	}
}

// GetActiveConnections returns the current number of connected clients
func (t *TCPSink) GetActiveConnections() int64 {
	return t.activeConns.Load()
}

// tcpServer implements the gnet.EventHandler interface for the sink
type tcpServer struct {
	gnet.BuiltinEventEngine
	sink    *TCPSink
	clients map[gnet.Conn]*tcpClient
	mu      sync.RWMutex
}

// tcpClient tracks one connected consumer
type tcpClient struct {
	conn   gnet.Conn
	buffer bytes.Buffer
}

// Fans buffered entries out to every client, interleaving heartbeats
// when configured.
func (t *TCPSink) broadcastLoop(ctx context.Context) {
	var tickerChan <-chan time.Time
	if t.config.Heartbeat > 0 {
		ticker := time.NewTicker(t.config.Heartbeat)
		tickerChan = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case entry := <-t.input:
			t.totalProcessed.Add(1)
			t.lastProcessed.Store(time.Now())

			data, err := t.formatter.Format(entry)
			if err != nil {
				t.totalFailed.Add(1)
				if t.logger != nil {
					t.logger.Error("msg", "Failed to format log entry",
						"component", "tcp_sink",
						"error", err)
				}
				continue
			}
			t.broadcastData(data)

		case <-tickerChan:
			data, err := t.formatter.Format(t.heartbeatEntry())
			if err != nil {
				continue
			}
			t.broadcastData(data)
		}
	}
}

// OnBoot stores the engine handle for shutdown
func (s *tcpServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.sink.engineMu.Lock()
	s.sink.engine = &eng
	s.sink.engineMu.Unlock()

	if s.sink.logger != nil {
		s.sink.logger.Debug("msg", "TCP server booted",
			"component", "tcp_sink",
			"port", s.sink.config.Port)
	}
	return gnet.None
}

// OnOpen registers the new client for broadcasts
func (s *tcpServer) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	client := &tcpClient{conn: c}

	s.mu.Lock()
	s.clients[c] = client
	s.mu.Unlock()

	newCount := s.sink.activeConns.Add(1)
	if s.sink.logger != nil {
		s.sink.logger.Debug("msg", "TCP connection opened",
			"component", "tcp_sink",
			"remote_addr", c.RemoteAddr().String(),
			"active_connections", newCount)
	}
	return nil, gnet.None
}

// OnClose drops the client and its error tracking state
func (s *tcpServer) OnClose(c gnet.Conn, err error) gnet.Action {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()

	s.sink.errorMu.Lock()
	delete(s.sink.consecutiveWriteErrors, c)
	s.sink.errorMu.Unlock()

	newCount := s.sink.activeConns.Add(-1)
	if s.sink.logger != nil {
		s.sink.logger.Debug("msg", "TCP connection closed",
			"component", "tcp_sink",
			"remote_addr", c.RemoteAddr().String(),
			"active_connections", newCount,
			"error", err)
	}
	return gnet.None
}

// OnTraffic discards inbound data, clients are consumers only
func (s *tcpServer) OnTraffic(c gnet.Conn) gnet.Action {
	c.Discard(-1)
	return gnet.None
}

// Sends one formatted line to every connected client
func (t *TCPSink) broadcastData(data []byte) {
	t.server.mu.RLock()
	defer t.server.mu.RUnlock()

	for conn := range t.server.clients {
		conn.AsyncWrite(data, func(c gnet.Conn, err error) error {
			if err != nil {
				t.writeErrors.Add(1)
				t.handleWriteError(c, err)
			} else {
				t.errorMu.Lock()
				delete(t.consecutiveWriteErrors, c)
				t.errorMu.Unlock()
			}
			return nil
		})
	}
}

// Evicts a client after repeated async write failures
func (t *TCPSink) handleWriteError(c gnet.Conn, err error) {
	remoteAddrStr := c.RemoteAddr().String()

	t.errorMu.Lock()
	defer t.errorMu.Unlock()

	t.consecutiveWriteErrors[c]++
	errorCount := t.consecutiveWriteErrors[c]

	if t.logger != nil {
		t.logger.Debug("msg", "AsyncWrite error",
			"component", "tcp_sink",
			"remote_addr", remoteAddrStr,
			"error", err,
			"consecutive_errors", errorCount)
	}

	if errorCount >= 3 {
		if t.logger != nil {
			t.logger.Warn("msg", "Closing connection due to repeated write errors",
				"component", "tcp_sink",
				"remote_addr", remoteAddrStr,
				"error_count", errorCount)
		}
		delete(t.consecutiveWriteErrors, c)
		c.Close()
	}
}

// Builds the periodic liveness entry broadcast to clients
func (t *TCPSink) heartbeatEntry() *core.LogEntry {
	entry := &core.LogEntry{
		Timestamp:   core.Now(),
		Type:        core.LevelInfo,
		ServiceName: "logfan",
		Message:     "heartbeat",
	}
	if t.config.HeartbeatStats {
		entry.Params = map[string]any{
			"active_connections": t.activeConns.Load(),
			"uptime_seconds":     int64(time.Since(t.startTime).Seconds()),
		}
	}
	return entry
}
