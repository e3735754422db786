package scheduler

import "time"

// Backoff constants mirror the host platform's work scheduler: retries start
// at the minimum backoff unit and double per attempt up to the cap.
const (
	MinBackoff = 10 * time.Second
	MaxBackoff = 5 * time.Hour
)

// Backoff is an exponential retry delay policy.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{Initial: MinBackoff, Max: MaxBackoff}
}

// Delay returns the wait before retry number attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= b.Max {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}
