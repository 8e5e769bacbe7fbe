// Package ratelimit implements a fixed-window request limiter keyed by
// client identifier.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter allows up to max requests per key per window. Entries whose
// window has passed are swept lazily on each call, so the map does not
// grow without bound.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	seen   map[string]*entry
	now    func() time.Time
}

// New creates a limiter allowing max requests per window for each key.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		seen:   make(map[string]*entry),
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit. A denied request does not consume from the counter.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	for k, e := range l.seen {
		if now.After(e.resetAt) {
			delete(l.seen, k)
		}
	}

	e, ok := l.seen[key]
	if !ok {
		l.seen[key] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true
	}

	if e.count < l.max {
		e.count++
		return true
	}

	return false
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
