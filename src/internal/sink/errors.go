// FILE: src/internal/sink/errors.go
package sink

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid construction option. Construction is
// the only path that fails synchronously; delivery failures are always
// reported through callbacks.
type ConfigError struct {
	Option string
	Value  any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid sink option %q: %v", e.Option, e.Value)
}

// ErrAlreadyReconnecting is returned by PipeSink.Reconnect while a
// reconnect is in flight.
var ErrAlreadyReconnecting = errors.New("reconnect already in progress")

// ErrUnsupportedPlatform marks FIFO delivery on platforms without
// named pipe support.
var ErrUnsupportedPlatform = errors.New("named pipes unsupported on this platform")

// ErrBufferFull reports an entry dropped because a sink's input buffer
// was at capacity.
var ErrBufferFull = errors.New("sink buffer full")
