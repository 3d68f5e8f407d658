package common

import (
	"testing"
	"time"
)

func TestTimeSync(t *testing.T) {
	ts := &TimeSync{}
	if !ts.Stale(time.Minute) {
		t.Fatal("unsampled sync must be stale")
	}

	// Server is (roughly) five seconds ahead.
	server := time.Now().UnixMilli() + 5000
	ts.Update(server, 0)
	if ts.Stale(time.Minute) {
		t.Fatal("freshly sampled sync must not be stale")
	}

	got := ts.Now()
	local := time.Now().UnixMilli()
	if diff := got - local - 5000; diff < -100 || diff > 100 {
		t.Fatalf("synced now off by %dms from expected offset", diff)
	}
}

func TestWeightTracker(t *testing.T) {
	w := NewWeightTracker(1200, time.Minute)

	used, limit := w.Usage()
	if used != 0 || limit != 1200 {
		t.Fatalf("initial usage = %d/%d", used, limit)
	}
	if w.ShouldDelay() {
		t.Fatal("fresh tracker must not delay")
	}

	w.Observe("600")
	if used, _ := w.Usage(); used != 600 {
		t.Fatalf("used = %d, want 600", used)
	}
	if w.ShouldDelay() {
		t.Fatal("half usage must not delay")
	}

	w.Observe("1150")
	if !w.ShouldDelay() {
		t.Fatal("96% usage must delay")
	}

	// Garbage and empty headers are ignored.
	w.Observe("")
	w.Observe("not-a-number")
	if used, _ := w.Usage(); used != 1150 {
		t.Fatalf("used = %d after bad headers, want 1150", used)
	}
}

func TestWeightTrackerWindowReset(t *testing.T) {
	w := NewWeightTracker(100, 10*time.Millisecond)
	w.Observe("95")
	time.Sleep(20 * time.Millisecond)
	if used, _ := w.Usage(); used != 0 {
		t.Fatalf("used = %d after window, want 0", used)
	}
	if w.ShouldDelay() {
		t.Fatal("expired window must not delay")
	}
}
