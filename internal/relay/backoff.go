package relay

import (
	"math/rand"
	"time"
)

const (
	backoffBase = time.Second
	backoffCap  = 30 * time.Second
	jitterMax   = 500 * time.Millisecond

	// DefaultMaxReconnectAttempts bounds automatic reconnection; beyond it
	// the client stays disconnected until Connect is called again.
	DefaultMaxReconnectAttempts = 10
)

// reconnectDelay returns the delay before reconnect attempt n (0-based):
// base doubling per attempt, capped, plus 0–500ms of jitter.
func reconnectDelay(attempt int, rng *rand.Rand) time.Duration {
	d := backoffCap
	if attempt < 6 { // 1<<6 seconds already exceeds the cap
		d = backoffBase << uint(attempt)
		if d > backoffCap {
			d = backoffCap
		}
	}
	return d + time.Duration(rng.Int63n(int64(jitterMax)))
}
