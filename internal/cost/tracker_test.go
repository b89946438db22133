package cost

import (
	"math"
	"sync"
	"testing"
	"time"
)

func newTestTracker() *Tracker {
	t := New()
	fixed := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return fixed }
	return t
}

func TestRecord_Accumulates(t *testing.T) {
	tr := newTestTracker()

	for i := 0; i < 4; i++ {
		tr.Record("gpt-4-vision-preview", "client")
	}

	u := tr.Usage("client")
	want := 4 * 0.03
	if math.Abs(u.DailyCost-want) > 1e-9 {
		t.Errorf("daily cost = %v, want %v", u.DailyCost, want)
	}
	if math.Abs(u.MonthlyCost-want) > 1e-9 {
		t.Errorf("monthly cost = %v, want %v", u.MonthlyCost, want)
	}
	if u.DailyRequests != 4 {
		t.Errorf("daily requests = %d, want 4", u.DailyRequests)
	}
	if math.Abs(u.ProjectedMonthly-want*30) > 1e-9 {
		t.Errorf("projected monthly = %v, want %v", u.ProjectedMonthly, want*30)
	}
}

func TestRecord_UnknownModelUsesDefault(t *testing.T) {
	tr := newTestTracker()

	tr.Record("some-new-model", "client")

	u := tr.Usage("client")
	if math.Abs(u.DailyCost-defaultCost) > 1e-9 {
		t.Errorf("daily cost = %v, want default %v", u.DailyCost, defaultCost)
	}
}

func TestUsage_IdentifiersIndependent(t *testing.T) {
	tr := newTestTracker()

	tr.Record("gpt-4o", "a")

	if u := tr.Usage("b"); u.DailyCost != 0 {
		t.Errorf("identifier b has spend %v, want 0", u.DailyCost)
	}
}

func TestWithinBudget_DailyBoundary(t *testing.T) {
	tr := newTestTracker()

	// 0.03 per call; limit of 0.09 blocks on reaching it exactly.
	for i := 0; i < 2; i++ {
		tr.Record("gpt-4-vision-preview", "client")
	}
	ok, reason := tr.WithinBudget("client", 0.09, 100)
	if !ok {
		t.Fatalf("below limit should be allowed, got reason %q", reason)
	}

	tr.Record("gpt-4-vision-preview", "client")
	ok, reason = tr.WithinBudget("client", 0.09, 100)
	if ok {
		t.Fatal("reaching the daily limit exactly should block")
	}
	if reason == "" {
		t.Error("expected a human-readable reason")
	}
}

func TestWithinBudget_MonthlyLimit(t *testing.T) {
	tr := newTestTracker()

	tr.Record("gpt-4o", "client")
	ok, reason := tr.WithinBudget("client", 100, 0.01)
	if ok {
		t.Fatal("expected monthly limit to block")
	}
	if reason != "Monthly limit of $0.01 exceeded" {
		t.Errorf("unexpected reason %q", reason)
	}
}

func TestPeriods_RollOver(t *testing.T) {
	tr := New()
	current := time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return current }

	tr.Record("gpt-4o", "client")

	// Next day, new month: daily and monthly accumulators start fresh.
	current = time.Date(2025, 7, 1, 1, 0, 0, 0, time.UTC)
	u := tr.Usage("client")
	if u.DailyCost != 0 {
		t.Errorf("daily cost after day rollover = %v, want 0", u.DailyCost)
	}
	if u.MonthlyCost != 0 {
		t.Errorf("monthly cost after month rollover = %v, want 0", u.MonthlyCost)
	}
}

func TestRecord_Concurrent(t *testing.T) {
	tr := newTestTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record("gpt-4o", "client")
		}()
	}
	wg.Wait()

	u := tr.Usage("client")
	if u.DailyRequests != 50 {
		t.Errorf("daily requests = %d, want 50", u.DailyRequests)
	}
	if math.Abs(u.DailyCost-50*0.03) > 1e-9 {
		t.Errorf("daily cost = %v, want %v", u.DailyCost, 50*0.03)
	}
}
