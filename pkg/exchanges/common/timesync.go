package common

import (
	"sync"
	"time"
)

// TimeSync tracks the offset between the local clock and a venue's server
// time. Signed endpoints reject requests whose timestamp drifts outside the
// recv window, so clients stamp requests with Now() instead of time.Now.
type TimeSync struct {
	mu     sync.RWMutex
	offset int64 // ms, server - local
	synced time.Time
}

// Update records a fresh server time sample. latency is the round-trip time
// of the probe; half of it is assumed to be the one-way delay.
func (ts *TimeSync) Update(serverTimeMs int64, latency time.Duration) {
	local := time.Now().UnixMilli() - latency.Milliseconds()/2
	ts.mu.Lock()
	ts.offset = serverTimeMs - local
	ts.synced = time.Now()
	ts.mu.Unlock()
}

// Now returns the current time in venue milliseconds.
func (ts *TimeSync) Now() int64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return time.Now().UnixMilli() + ts.offset
}

// Stale reports whether the offset is older than maxAge (or never sampled).
func (ts *TimeSync) Stale(maxAge time.Duration) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.synced.IsZero() || time.Since(ts.synced) > maxAge
}
