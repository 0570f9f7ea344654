// FILE: src/internal/sink/backoff.go
package sink

import "time"

// BackoffStrategy computes the delay inserted before a retry attempt.
// attempt is the number of failed attempts so far, starting at 1.
type BackoffStrategy interface {
	Delay(attempt int) time.Duration
}

// NoBackoff retries as fast as the queue drains. This is the default:
// the retry contract is about attempt accounting, not pacing.
type NoBackoff struct{}

func (NoBackoff) Delay(int) time.Duration { return 0 }

// ExponentialBackoff grows the delay by Factor per attempt, capped at Max
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := b.Initial
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(delay) * b.Factor)
		if next > b.Max || next < delay {
			// Cap, and guard against overflow wrap
			return b.Max
		}
		delay = next
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	return delay
}
