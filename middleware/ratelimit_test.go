package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewIPRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d: want allowed, got blocked", i+1)
		}
	}
}

func TestIPRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewIPRateLimiter(2, time.Minute)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")

	if rl.Allow("10.0.0.1") {
		t.Error("want third request blocked, got allowed")
	}
	// A different IP has its own window.
	if !rl.Allow("10.0.0.2") {
		t.Error("want request from other IP allowed, got blocked")
	}
}

func TestIPRateLimiter_SweepDropsIdleIPs(t *testing.T) {
	rl := NewIPRateLimiter(5, time.Minute)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	// Well past both windows: every entry must be gone, not just emptied.
	rl.sweep(time.Now().Add(2 * time.Minute))

	rl.mu.Lock()
	n := len(rl.requests)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("entries after sweep = %d, want 0", n)
	}
}

func TestIPRateLimiter_SweepKeepsActiveIPs(t *testing.T) {
	rl := NewIPRateLimiter(5, time.Minute)

	rl.Allow("10.0.0.1")
	rl.sweep(time.Now())

	if !rl.Allow("10.0.0.1") {
		t.Error("want request allowed after no-op sweep")
	}
	rl.mu.Lock()
	n := len(rl.requests["10.0.0.1"])
	rl.mu.Unlock()
	if n != 2 {
		t.Errorf("requests tracked = %d, want 2", n)
	}
}

func TestIPRateLimiter_WindowExpires(t *testing.T) {
	rl := NewIPRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("want first request allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("want second request blocked inside window")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow("10.0.0.1") {
		t.Error("want request allowed after window expired")
	}
}
