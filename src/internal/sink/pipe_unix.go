// FILE: src/internal/sink/pipe_unix.go
//go:build unix

package sink

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Interval between attempts to open a FIFO that has no reader yet
const readerPollInterval = 50 * time.Millisecond

// openPipe validates the target and opens its write side. Opening a
// FIFO write-only blocks until a reader attaches, so the open uses
// O_NONBLOCK and retries on ENXIO. The flag stays set on the returned
// file, which lets the runtime poller park a blocked write instead of
// an OS thread and lets Close interrupt it. Returns nil, nil when stop
// closes before a reader appears.
func openPipe(path string, stop <-chan struct{}) (*os.File, *PipeError) {
	info, err := os.Stat(path)
	if err != nil {
		kind := ErrKindNotFound
		if os.IsPermission(err) {
			kind = ErrKindPermission
		}
		return nil, &PipeError{Kind: kind, Path: path, Err: err}
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		return nil, &PipeError{Kind: ErrKindNotAPipe, Path: path}
	}

	for {
		fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			return os.NewFile(uintptr(fd), path), nil
		}
		switch err {
		case unix.ENXIO, unix.EINTR:
			// No reader on the other end yet, or interrupted open
		case unix.EACCES, unix.EPERM:
			return nil, &PipeError{Kind: ErrKindPermission, Path: path, Err: err}
		case unix.ENOENT:
			return nil, &PipeError{Kind: ErrKindNotFound, Path: path, Err: err}
		default:
			return nil, &PipeError{Kind: ErrKindWrite, Path: path, Err: err}
		}

		select {
		case <-stop:
			return nil, nil
		case <-time.After(readerPollInterval):
		}
	}
}
