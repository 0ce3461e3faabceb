package ratelimiter

import (
	"testing"
	"time"
)

func TestFixedWindowLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if allow, _ := rl.Allow("10.0.0.1"); !allow {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allow, retryAfter := rl.Allow("10.0.0.1")
	if allow {
		t.Fatal("request over the limit should be denied")
	}
	if retryAfter != time.Minute {
		t.Fatalf("expected retry after %v, got %v", time.Minute, retryAfter)
	}
}

func TestFixedWindowLimiterTracksClientsSeparately(t *testing.T) {
	rl := NewFixedWindowLimiter(1, time.Minute)

	if allow, _ := rl.Allow("10.0.0.1"); !allow {
		t.Fatal("first client should be allowed")
	}
	if allow, _ := rl.Allow("10.0.0.2"); !allow {
		t.Fatal("second client has its own window")
	}
	if allow, _ := rl.Allow("10.0.0.1"); allow {
		t.Fatal("first client should now be over its limit")
	}
}
