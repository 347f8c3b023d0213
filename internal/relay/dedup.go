package relay

import (
	"sync"
	"time"
)

// DefaultFreshnessWindow is the maximum age of an event before it is treated
// as stale and dropped.
const DefaultFreshnessWindow = 5 * time.Minute

const ledgerBuckets = 5

// Ledger is a time-bucketed set of recently seen event identifiers. Bucketing
// bounds memory: pruning drops whole buckets older than the window instead of
// scanning individual ids.
type Ledger struct {
	mu      sync.Mutex
	window  time.Duration
	bucket  time.Duration
	buckets map[int64]map[string]struct{}
	now     func() time.Time
}

// NewLedger returns a ledger with the given freshness window.
func NewLedger(window time.Duration) *Ledger {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &Ledger{
		window:  window,
		bucket:  window / ledgerBuckets,
		buckets: make(map[int64]map[string]struct{}),
		now:     time.Now,
	}
}

// Observe records id and reports whether the event is fresh: not stale and
// not seen before within the window. Observing a duplicate or stale id does
// not extend its lifetime.
func (l *Ledger) Observe(id string, createdAt time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(createdAt) > l.window {
		return false
	}

	l.pruneLocked(now)
	for _, ids := range l.buckets {
		if _, seen := ids[id]; seen {
			return false
		}
	}

	slot := now.UnixNano() / int64(l.bucket)
	ids, ok := l.buckets[slot]
	if !ok {
		ids = make(map[string]struct{})
		l.buckets[slot] = ids
	}
	ids[id] = struct{}{}
	return true
}

// Prune drops buckets older than the freshness window.
func (l *Ledger) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())
}

// Reset clears all recorded identifiers.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[int64]map[string]struct{})
}

func (l *Ledger) pruneLocked(now time.Time) {
	oldest := (now.UnixNano() - int64(l.window)) / int64(l.bucket)
	for slot := range l.buckets {
		if slot < oldest {
			delete(l.buckets, slot)
		}
	}
}
