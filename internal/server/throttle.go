package server

import (
	"sync"
	"time"
)

// throttle caps attempts per key inside a fixed window. The login route
// keys it by client IP to slow credential stuffing; state is process-local
// and windows are recreated lazily on the first attempt after expiry.
type throttle struct {
	max int
	per time.Duration

	mu      sync.Mutex
	windows map[string]attemptWindow
}

type attemptWindow struct {
	resetAt time.Time
	seen    int
}

func newThrottle(max int, per time.Duration) *throttle {
	return &throttle{
		max:     max,
		per:     per,
		windows: make(map[string]attemptWindow),
	}
}

// Allow reports whether one more attempt for key fits in the current
// window. Unkeyed callers are always refused.
func (t *throttle) Allow(key string) bool {
	if key == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	w, ok := t.windows[key]
	if !ok || now.After(w.resetAt) {
		w = attemptWindow{resetAt: now.Add(t.per)}
	}
	if w.seen >= t.max {
		return false
	}
	w.seen++
	t.windows[key] = w
	return true
}
