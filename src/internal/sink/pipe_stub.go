// FILE: src/internal/sink/pipe_stub.go
//go:build !unix

package sink

import "os"

// Named pipe delivery needs FIFO open semantics the platform does not
// provide, so every connection attempt fails terminally.
func openPipe(path string, _ <-chan struct{}) (*os.File, *PipeError) {
	return nil, &PipeError{Kind: ErrKindUnsupported, Path: path, Err: ErrUnsupportedPlatform}
}
