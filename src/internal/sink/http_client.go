// FILE: src/internal/sink/http_client.go
package sink

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"logfan/src/internal/core"
	"logfan/src/internal/format"
	"logfan/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

// HTTPConfig holds configuration for the HTTP forwarding sink
type HTTPConfig struct {
	// Target endpoint, http or https
	URL string

	// Entries buffered between Write and the batching loop
	BufferSize int

	// Entries per batch before an immediate send
	BatchSize int

	// Maximum age of a partial batch before it is sent anyway
	BatchDelay time.Duration

	// Per-request timeout
	Timeout time.Duration

	// Retries after the first failed send of a batch
	MaxRetries int

	// Initial delay between retries, grown by RetryBackoff each attempt
	RetryDelay   time.Duration
	RetryBackoff float64

	// Skip TLS certificate verification for https targets
	InsecureSkipVerify bool

	// Send plain text lines instead of a JSON array body
	PlainFormat bool

	// Entries below this level are skipped
	MinLevel core.Level

	// Invoked on dropped entries and failed batch sends
	OnError ErrorFunc
}

// HTTPClientSink forwards batched log entries to a remote HTTP endpoint
type HTTPClientSink struct {
	config    HTTPConfig
	client    *fasthttp.Client
	formatter format.Formatter
	logger    *log.Logger

	input chan *core.LogEntry

	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup

	batch   []*core.LogEntry
	batchMu sync.Mutex

	startTime         time.Time
	totalProcessed    atomic.Uint64
	totalFailed       atomic.Uint64
	totalBatches      atomic.Uint64
	failedBatches     atomic.Uint64
	lastProcessed     atomic.Value
	lastBatchSent     atomic.Value
	activeConnections atomic.Int64
}

// NewHTTPClientSink creates the sink and starts its batching loops
func NewHTTPClientSink(cfg HTTPConfig, logger *log.Logger) (*HTTPClientSink, error) {
	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		return nil, &ConfigError{Option: "url", Value: cfg.URL}
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = core.DefaultBufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		return nil, &ConfigError{Option: "max_retries", Value: cfg.MaxRetries}
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RetryBackoff < 1 {
		cfg.RetryBackoff = 2.0
	}

	formatterName := "json"
	if cfg.PlainFormat {
		formatterName = "plain"
	}
	formatter, err := format.New(formatterName)
	if err != nil {
		return nil, err
	}

	h := &HTTPClientSink{
		config:    cfg,
		formatter: formatter,
		logger:    logger,
		input:     make(chan *core.LogEntry, cfg.BufferSize),
		batch:     make([]*core.LogEntry, 0, cfg.BatchSize),
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
	h.lastProcessed.Store(time.Time{})
	h.lastBatchSent.Store(time.Time{})

	h.client = &fasthttp.Client{
		MaxConnsPerHost:               10,
		MaxIdleConnDuration:           10 * time.Second,
		ReadTimeout:                   cfg.Timeout,
		WriteTimeout:                  cfg.Timeout,
		DisableHeaderNamesNormalizing: true,
	}
	if strings.HasPrefix(cfg.URL, "https://") && cfg.InsecureSkipVerify {
		h.client.TLSConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	h.wg.Add(2)
	go h.processLoop()
	go h.batchTimer()

	if logger != nil {
		logger.Info("msg", "HTTP client sink started",
			"component", "http_client_sink",
			"url", cfg.URL,
			"batch_size", cfg.BatchSize,
			"batch_delay", cfg.BatchDelay)
	}
	return h, nil
}

// Write buffers the entry for the next batch. A full buffer drops the
// entry rather than blocking the caller.
func (h *HTTPClientSink) Write(entry *core.LogEntry) error {
	if entry == nil || h.closed.Load() {
		return nil
	}
	if !entry.Type.Meets(h.config.MinLevel) {
		return nil
	}

	select {
	case h.input <- entry:
	default:
		h.totalFailed.Add(1)
		if h.config.OnError != nil {
			h.config.OnError(ErrBufferFull, entry, 1, false)
		}
	}
	return nil
}

// Close stops the loops and sends any remaining batched entries
func (h *HTTPClientSink) Close(ctx context.Context) error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(h.done)
	h.wg.Wait()

	// Pull stragglers off the input channel into the final batch
	for {
		select {
		case entry := <-h.input:
			h.batchMu.Lock()
			h.batch = append(h.batch, entry)
			h.batchMu.Unlock()
		default:
			goto flush
		}
	}

flush:
	h.batchMu.Lock()
	if len(h.batch) > 0 {
		batch := h.batch
		h.batch = make([]*core.LogEntry, 0, h.config.BatchSize)
		h.batchMu.Unlock()
		h.sendBatch(batch)
	} else {
		h.batchMu.Unlock()
	}

	if h.logger != nil {
		h.logger.Info("msg", "HTTP client sink stopped",
			"component", "http_client_sink",
			"total_processed", h.totalProcessed.Load(),
			"total_batches", h.totalBatches.Load(),
			"failed_batches", h.failedBatches.Load())
	}
	return nil
}

// GetStats returns current sink statistics
func (h *HTTPClientSink) GetStats() SinkStats {
	lastProc, _ := h.lastProcessed.Load().(time.Time)
	lastBatch, _ := h.lastBatchSent.Load().(time.Time)

	h.batchMu.Lock()
	pendingEntries := len(h.batch)
	h.batchMu.Unlock()

	return SinkStats{
		Type:              "http_client",
		TotalProcessed:    h.totalProcessed.Load(),
		TotalFailed:       h.totalFailed.Load(),
		ActiveConnections: h.activeConnections.Load(),
		StartTime:         h.startTime,
		LastProcessed:     lastProc,
		Details: map[string]any{
			"url":             h.config.URL,
			"batch_size":      h.config.BatchSize,
			"pending_entries": pendingEntries,
			"total_batches":   h.totalBatches.Load(),
			"failed_batches":  h.failedBatches.Load(),
			"last_batch_sent": lastBatch,
		},
	}
}

// Collects incoming entries into the current batch, sending when full
func (h *HTTPClientSink) processLoop() {
	defer h.wg.Done()

	for {
		select {
		case entry := <-h.input:
			h.totalProcessed.Add(1)
			h.lastProcessed.Store(time.Now())

			h.batchMu.Lock()
			h.batch = append(h.batch, entry)
			if len(h.batch) >= h.config.BatchSize {
				batch := h.batch
				h.batch = make([]*core.LogEntry, 0, h.config.BatchSize)
				h.batchMu.Unlock()
				go h.sendBatch(batch)
			} else {
				h.batchMu.Unlock()
			}

		case <-h.done:
			return
		}
	}
}

// Flushes partial batches that have been waiting longer than BatchDelay
func (h *HTTPClientSink) batchTimer() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.config.BatchDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.batchMu.Lock()
			if len(h.batch) > 0 {
				batch := h.batch
				h.batch = make([]*core.LogEntry, 0, h.config.BatchSize)
				h.batchMu.Unlock()
				go h.sendBatch(batch)
			} else {
				h.batchMu.Unlock()
			}

		case <-h.done:
			return
		}
	}
}

// Sends one batch with retries. Client errors are final, server errors
// and transport failures retry with growing delay.
func (h *HTTPClientSink) sendBatch(batch []*core.LogEntry) {
	h.activeConnections.Add(1)
	defer h.activeConnections.Add(-1)

	h.totalBatches.Add(1)
	h.lastBatchSent.Store(time.Now())

	var body []byte
	var err error

	if jsonFormatter, ok := h.formatter.(*format.JSONFormatter); ok {
		body, err = jsonFormatter.FormatBatch(batch)
	} else {
		var formatted [][]byte
		for _, entry := range batch {
			entryBytes, ferr := h.formatter.Format(entry)
			if ferr != nil {
				if h.logger != nil {
					h.logger.Error("msg", "Failed to format entry in batch",
						"component", "http_client_sink",
						"error", ferr)
				}
				continue
			}
			formatted = append(formatted, entryBytes)
		}
		body = bytes.Join(formatted, nil)
	}

	if err != nil {
		if h.logger != nil {
			h.logger.Error("msg", "Failed to format batch",
				"component", "http_client_sink",
				"error", err,
				"batch_size", len(batch))
		}
		if h.config.OnError != nil {
			h.config.OnError(err, nil, 1, false)
		}
		h.recordBatchFailure(batch)
		return
	}

	var lastErr error
	retryDelay := h.config.RetryDelay

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)

			newDelay := time.Duration(float64(retryDelay) * h.config.RetryBackoff)
			if newDelay > h.config.Timeout || newDelay < retryDelay {
				// Exceeded cap or overflowed
				retryDelay = h.config.Timeout
			} else {
				retryDelay = newDelay
			}
		}

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()

		req.SetRequestURI(h.config.URL)
		req.Header.SetMethod("POST")
		if h.config.PlainFormat {
			req.Header.SetContentType("text/plain")
		} else {
			req.Header.SetContentType("application/json")
		}
		req.SetBody(body)
		req.Header.Set("User-Agent", fmt.Sprintf("logfan/%s", version.Short()))

		sendErr := h.client.DoTimeout(req, resp, h.config.Timeout)

		statusCode := resp.StatusCode()
		var responseBody []byte
		if len(resp.Body()) > 0 {
			responseBody = make([]byte, len(resp.Body()))
			copy(responseBody, resp.Body())
		}

		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)

		if sendErr != nil {
			lastErr = fmt.Errorf("request failed: %w", sendErr)
			if h.config.OnError != nil {
				h.config.OnError(lastErr, nil, attempt+1, attempt < h.config.MaxRetries)
			}
			if h.logger != nil {
				h.logger.Warn("msg", "HTTP request failed",
					"component", "http_client_sink",
					"attempt", attempt+1,
					"max_retries", h.config.MaxRetries,
					"error", sendErr)
			}
			continue
		}

		if statusCode >= 200 && statusCode < 300 {
			if h.logger != nil {
				h.logger.Debug("msg", "Batch sent successfully",
					"component", "http_client_sink",
					"batch_size", len(batch),
					"status_code", statusCode,
					"attempt", attempt+1)
			}
			return
		}

		lastErr = fmt.Errorf("server returned status %d: %s", statusCode, responseBody)

		// Client errors will not improve with retries
		if statusCode >= 400 && statusCode < 500 {
			if h.logger != nil {
				h.logger.Error("msg", "Batch rejected by server",
					"component", "http_client_sink",
					"status_code", statusCode,
					"response", string(responseBody),
					"batch_size", len(batch))
			}
			if h.config.OnError != nil {
				h.config.OnError(lastErr, nil, attempt+1, false)
			}
			h.recordBatchFailure(batch)
			return
		}

		if h.config.OnError != nil {
			h.config.OnError(lastErr, nil, attempt+1, attempt < h.config.MaxRetries)
		}
		if h.logger != nil {
			h.logger.Warn("msg", "Server returned error status",
				"component", "http_client_sink",
				"attempt", attempt+1,
				"status_code", statusCode,
				"response", string(responseBody))
		}
	}

	if h.logger != nil {
		h.logger.Error("msg", "Failed to send batch after all retries",
			"component", "http_client_sink",
			"batch_size", len(batch),
			"retries", h.config.MaxRetries,
			"last_error", lastErr)
	}
	h.recordBatchFailure(batch)
}

func (h *HTTPClientSink) recordBatchFailure(batch []*core.LogEntry) {
	h.failedBatches.Add(1)
	h.totalFailed.Add(uint64(len(batch)))
}
