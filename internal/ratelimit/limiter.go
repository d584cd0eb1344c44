// Package ratelimit implements fixed-window request counting keyed by caller
// identifier. The limiter is approximate: a caller can burst up to twice the
// quota across a window boundary. That is acceptable for abuse dampening and
// keeps the critical section to one map lookup and increment.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults applied when a caller passes a non-positive quota or window.
const (
	DefaultMaxRequests = 10
	DefaultWindow      = 60 * time.Second
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter tracks one fixed window per identifier. Windows are created lazily
// and overwritten when their reset time passes; there is no background
// eviction, so callers must bound the identifier space (e.g. key by client IP).
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// New returns an empty Limiter.
func New() *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow reports whether the request identified by id is within quota, counting
// it if so. maxRequests and windowDur fall back to the package defaults when
// non-positive. The read-check-increment runs as one critical section so two
// concurrent calls cannot both pass a quota of one.
func (l *Limiter) Allow(id string, maxRequests int, windowDur time.Duration) bool {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if windowDur <= 0 {
		windowDur = DefaultWindow
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[id]
	if !ok || !now.Before(w.resetAt) {
		l.windows[id] = &window{count: 1, resetAt: now.Add(windowDur)}
		return true
	}
	if w.count < maxRequests {
		w.count++
		return true
	}
	return false
}

// Len returns the number of tracked identifiers, including expired windows
// that have not been overwritten yet.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
