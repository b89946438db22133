package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fixedClock lets tests advance time manually.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int) (*Limiter, *fixedClock) {
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New(limit)
	l.now = clock.now
	return l, clock
}

func TestCheck_UnderLimit(t *testing.T) {
	l, _ := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		allowed, retry := l.Check("client")
		if !allowed {
			t.Fatalf("request %d unexpectedly rejected", i+1)
		}
		if retry != 0 {
			t.Errorf("request %d: retry = %d, want 0", i+1, retry)
		}
	}
}

func TestCheck_OverLimit(t *testing.T) {
	l, _ := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		l.Check("client")
	}
	allowed, retry := l.Check("client")
	if allowed {
		t.Fatal("4th request within the window should be rejected")
	}
	if retry <= 0 || retry > 60 {
		t.Errorf("retry = %d, want in (0,60]", retry)
	}
}

func TestCheck_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(2)

	l.Check("client")
	clock.advance(30 * time.Second)
	l.Check("client")

	allowed, retry := l.Check("client")
	if allowed {
		t.Fatal("expected rejection with full window")
	}
	// Oldest request ages out 60s after it was made, i.e. 30s from now.
	if retry != 30 {
		t.Errorf("retry = %d, want 30", retry)
	}

	clock.advance(time.Duration(retry) * time.Second)
	allowed, _ = l.Check("client")
	if !allowed {
		t.Error("expected admission after waiting out retry-after")
	}
}

func TestCheck_IdentifiersIndependent(t *testing.T) {
	l, _ := newTestLimiter(1)

	l.Check("a")
	if allowed, _ := l.Check("b"); !allowed {
		t.Error("identifier b should not be throttled by a's requests")
	}
	if allowed, _ := l.Check("a"); allowed {
		t.Error("identifier a should be throttled")
	}
}

func TestCheck_WindowNeverExceedsLimit(t *testing.T) {
	l, clock := newTestLimiter(5)

	for i := 0; i < 20; i++ {
		l.Check("client")
		clock.advance(time.Second)
	}

	l.mu.Lock()
	n := len(l.requests["client"])
	l.mu.Unlock()
	if n > 5 {
		t.Errorf("window holds %d entries, want <= 5", n)
	}
}

func TestCheck_Concurrent(t *testing.T) {
	l := New(50)

	var wg sync.WaitGroup
	admitted := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := l.Check("client")
			admitted <- ok
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Errorf("admitted %d of 100 concurrent requests, want exactly 50", count)
	}
}
