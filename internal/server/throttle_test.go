package server

import (
	"testing"
	"time"
)

func TestThrottleBlocksOverMax(t *testing.T) {
	th := newThrottle(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !th.Allow("10.0.0.1") {
			t.Fatalf("attempt %d within limit must pass", i+1)
		}
	}
	if th.Allow("10.0.0.1") {
		t.Fatalf("attempt over limit must be blocked")
	}
	if !th.Allow("10.0.0.2") {
		t.Fatalf("other keys must not be affected")
	}
}

func TestThrottleWindowExpiry(t *testing.T) {
	th := newThrottle(1, 10*time.Millisecond)

	if !th.Allow("k") {
		t.Fatalf("first attempt must pass")
	}
	if th.Allow("k") {
		t.Fatalf("second attempt in window must be blocked")
	}
	time.Sleep(20 * time.Millisecond)
	if !th.Allow("k") {
		t.Fatalf("attempt after window expiry must pass")
	}
}

func TestThrottleRefusesEmptyKey(t *testing.T) {
	th := newThrottle(10, time.Minute)
	if th.Allow("") {
		t.Fatalf("empty keys must never be allowed")
	}
}
