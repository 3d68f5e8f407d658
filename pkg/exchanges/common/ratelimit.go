package common

import (
	"log"
	"strconv"
	"sync"
	"time"
)

// WeightTracker follows used request weight reported by exchange response
// headers. It does not block requests itself; callers consult ShouldDelay
// before bursts of optional work (balance refresh, history pulls).
type WeightTracker struct {
	mu        sync.RWMutex
	used      int
	limit     int
	window    time.Duration
	lastReset time.Time
}

// NewWeightTracker creates a tracker for limit weight per window
// (e.g. 1200/min for Binance spot).
func NewWeightTracker(limit int, window time.Duration) *WeightTracker {
	return &WeightTracker{
		limit:     limit,
		window:    window,
		lastReset: time.Now(),
	}
}

// Observe updates usage from a response header value. Empty or malformed
// values are ignored.
func (w *WeightTracker) Observe(headerValue string) {
	if headerValue == "" {
		return
	}
	used, err := strconv.Atoi(headerValue)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if time.Since(w.lastReset) >= w.window {
		w.used = 0
		w.lastReset = time.Now()
	}
	w.used = used

	if pct := float64(w.used) / float64(w.limit) * 100; pct >= 90 {
		log.Printf("rate limit high: %d/%d (%.1f%%)", w.used, w.limit, pct)
	}
}

// Usage returns current used weight and the configured limit.
func (w *WeightTracker) Usage() (used, limit int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if time.Since(w.lastReset) >= w.window {
		return 0, w.limit
	}
	return w.used, w.limit
}

// ShouldDelay reports whether usage is close enough to the limit that
// non-essential requests should back off.
func (w *WeightTracker) ShouldDelay() bool {
	used, limit := w.Usage()
	return limit > 0 && float64(used)/float64(limit) >= 0.9
}
