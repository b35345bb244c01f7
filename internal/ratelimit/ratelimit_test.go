package ratelimit

import (
	"testing"
	"time"
)

// testLimiter returns a limiter with a controllable clock.
func testLimiter() (*Limiter, *time.Time) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	l := New(nil)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestWindowReset(t *testing.T) {
	l, now := testLimiter()
	cfg := Config{Prefix: "test", MaxRequests: 1, Window: 100 * time.Millisecond}

	first := l.Check(cfg, "user-1")
	if !first.Allowed {
		t.Fatal("first request must be allowed")
	}
	if first.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", first.Remaining)
	}

	second := l.Check(cfg, "user-1")
	if second.Allowed {
		t.Fatal("second request within the window must be blocked")
	}
	if second.RetryAfter <= 0 {
		t.Errorf("expected positive retryAfter, got %v", second.RetryAfter)
	}

	// After the window elapses, a fresh window starts.
	*now = now.Add(150 * time.Millisecond)
	third := l.Check(cfg, "user-1")
	if !third.Allowed {
		t.Fatal("request after window reset must be allowed")
	}
	if third.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", third.Remaining)
	}
}

func TestRemainingCountsDown(t *testing.T) {
	l, _ := testLimiter()
	cfg := Config{Prefix: "test", MaxRequests: 3, Window: time.Minute}

	for i, want := range []int{2, 1, 0} {
		res := l.Check(cfg, "user-1")
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Remaining != want {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, want, res.Remaining)
		}
	}

	res := l.Check(cfg, "user-1")
	if res.Allowed {
		t.Error("fourth request must be blocked")
	}
	if res.Remaining != 0 {
		t.Errorf("blocked request: expected remaining 0, got %d", res.Remaining)
	}
}

func TestIdentifiersAreIndependent(t *testing.T) {
	l, _ := testLimiter()
	cfg := Config{Prefix: "test", MaxRequests: 1, Window: time.Minute}

	if !l.Check(cfg, "user-1").Allowed {
		t.Fatal("user-1 first request should be allowed")
	}
	if !l.Check(cfg, "user-2").Allowed {
		t.Error("user-2 must have its own window")
	}
}

func TestPrefixesAreIndependent(t *testing.T) {
	l, _ := testLimiter()
	a := Config{Prefix: "a", MaxRequests: 1, Window: time.Minute}
	b := Config{Prefix: "b", MaxRequests: 1, Window: time.Minute}

	if !l.Check(a, "user-1").Allowed {
		t.Fatal("first request should be allowed")
	}
	if !l.Check(b, "user-1").Allowed {
		t.Error("same identifier under a different prefix must not share a window")
	}
}

func TestGuestTrialEffectivelyPermanent(t *testing.T) {
	l, now := testLimiter()

	if !l.Check(GuestTrial, "session-abc").Allowed {
		t.Fatal("first guest trial should be allowed")
	}

	// Even a year later the trial stays consumed.
	*now = now.Add(365 * 24 * time.Hour)
	if l.Check(GuestTrial, "session-abc").Allowed {
		t.Error("guest trial must not reset")
	}
}

func TestSweepEvictsExpiredWindows(t *testing.T) {
	store := NewMemoryStore()
	l := New(store)
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	cfg := Config{Prefix: "test", MaxRequests: 5, Window: time.Minute}
	l.Check(cfg, "user-1")
	l.Check(cfg, "user-2")

	now = now.Add(2 * time.Minute)
	l.Sweep()

	if len(store.windows) != 0 {
		t.Errorf("expected all windows evicted, %d remain", len(store.windows))
	}

	// A swept identifier starts fresh.
	if res := l.Check(cfg, "user-1"); !res.Allowed || res.Remaining != 4 {
		t.Errorf("expected fresh window after sweep, got %+v", res)
	}
}
