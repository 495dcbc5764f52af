package gateway

import (
	"testing"
	"time"
)

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	defer rl.Stop()
	if rl.Enabled() {
		t.Fatal("rpm 0 should disable the limiter")
	}
	for range 100 {
		if !rl.Allow("k") {
			t.Fatal("disabled limiter must always allow")
		}
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(60, 3)
	defer rl.Stop()

	for i := range 3 {
		if !rl.Allow("a") {
			t.Fatalf("request %d within burst was rejected", i)
		}
	}
	if rl.Allow("a") {
		t.Error("request beyond burst should be rejected")
	}
	if !rl.Allow("b") {
		t.Error("keys must have independent buckets")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	defer rl.Stop()

	rl.Allow("old")
	rl.cleanup(time.Now().Add(rateLimitIdleTTL + time.Minute))
	if _, ok := rl.limiters.Load("old"); ok {
		t.Error("idle entry should be swept")
	}

	rl.Allow("fresh")
	rl.cleanup(time.Now())
	if _, ok := rl.limiters.Load("fresh"); !ok {
		t.Error("recent entry should be kept")
	}
}
