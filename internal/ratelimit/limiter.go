// Package ratelimit implements a per-client sliding-window request limiter.
//
// The window counts requests in the trailing 60 seconds rather than in
// aligned fixed buckets, which avoids admitting a double burst across a
// bucket boundary. State is in-memory only; a restart resets all windows.
// This is a soft throttle, not a security boundary.
package ratelimit

import (
	"log"
	"math"
	"sync"
	"time"
)

const window = time.Minute

// Limiter tracks request timestamps per identifier and admits or rejects
// each request against a fixed per-minute limit.
type Limiter struct {
	mu       sync.Mutex
	limit    int
	requests map[string][]time.Time
	now      func() time.Time
}

// New creates a Limiter allowing limit requests per identifier per minute.
func New(limit int) *Limiter {
	return &Limiter{
		limit:    limit,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Check records a request attempt for the identifier and reports whether it
// is admitted. When rejected, retryAfter is the whole number of seconds
// until the oldest in-window request ages out.
func (l *Limiter) Check(identifier string) (allowed bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-window)

	// Prune entries that have left the window.
	kept := l.requests[identifier][:0]
	for _, ts := range l.requests[identifier] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.requests[identifier] = kept
		oldest := kept[0]
		retry := int(math.Ceil(oldest.Add(window).Sub(now).Seconds()))
		if retry < 1 {
			retry = 1
		}
		log.Printf("ratelimit: limit exceeded for %s", identifier)
		return false, retry
	}

	l.requests[identifier] = append(kept, now)
	return true, 0
}
