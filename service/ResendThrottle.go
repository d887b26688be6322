package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const throttlePruneThreshold = 4096

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ResendThrottle limits how often a code can be sent to the same recipient.
type ResendThrottle struct {
	mu       sync.Mutex
	entries  map[string]*throttleEntry
	every    time.Duration
	burst    int
	now      func() time.Time
	disabled bool
}

// NewResendThrottle allows burst sends per key, refilled one every interval.
// A non-positive interval disables throttling.
func NewResendThrottle(interval time.Duration, burst int) *ResendThrottle {
	if burst < 1 {
		burst = 1
	}
	return &ResendThrottle{
		entries:  make(map[string]*throttleEntry),
		every:    interval,
		burst:    burst,
		now:      time.Now,
		disabled: interval <= 0,
	}
}

func (t *ResendThrottle) Allow(key string) bool {
	if t == nil || t.disabled {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.entries[key]
	if !ok {
		if len(t.entries) >= throttlePruneThreshold {
			t.prune(now)
		}
		e = &throttleEntry{limiter: rate.NewLimiter(rate.Every(t.every), t.burst)}
		t.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// prune drops keys whose bucket has fully refilled. Caller holds mu.
func (t *ResendThrottle) prune(now time.Time) {
	idle := t.every * time.Duration(t.burst)
	for key, e := range t.entries {
		if now.Sub(e.lastSeen) > idle {
			delete(t.entries, key)
		}
	}
}
