// FILE: src/internal/core/const.go
package core

import "time"

// Shared defaults for sink queue and shutdown behavior
const (
	DefaultBufferSize   = 1000
	DefaultCloseTimeout = 30 * time.Second
	DefaultFlushPoll    = 10 * time.Millisecond
)
