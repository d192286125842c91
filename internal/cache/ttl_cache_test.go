package cache

import (
	"testing"
	"time"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 7, time.Minute)

	got, ok := c.Get("a")
	if !ok || got != 7 {
		t.Fatalf("expected hit with 7, got %d ok=%v", got, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, string]()
	c.Set("k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache[int, string]()
	c.Set(1, "forever", 0)
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get(1); !ok {
		t.Fatalf("expected zero-ttl entry to persist")
	}
}
