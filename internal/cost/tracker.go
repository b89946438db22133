// Package cost tracks estimated API spend per client identifier and
// enforces daily and monthly budget ceilings.
//
// Spend is accumulated in-memory against calendar-period keys; moving into
// a new day or month implicitly starts fresh accumulators and old keys
// simply age out of relevance. State resets on restart and is not shared
// across instances: this is an advisory guard, not a billing system.
package cost

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// perCallCost estimates the cost of one vision recognition call per model.
// Values are rough flat per-request figures, not token-metered prices.
var perCallCost = map[string]float64{
	"gpt-4-vision-preview":       0.03,
	"gpt-4o":                     0.03,
	"claude-3-opus-20240229":     0.025,
	"claude-3-5-sonnet-20241022": 0.015,
	"fallback":                   0.01,
}

// defaultCost is charged for models missing from the table.
const defaultCost = 0.02

// Tracker accumulates per-identifier spend for the current day and month.
type Tracker struct {
	mu            sync.Mutex
	dailyCosts    map[string]float64
	monthlyCosts  map[string]float64
	dailyRequests map[string]int
	now           func() time.Time
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		dailyCosts:    make(map[string]float64),
		monthlyCosts:  make(map[string]float64),
		dailyRequests: make(map[string]int),
		now:           time.Now,
	}
}

func (t *Tracker) dayKey(identifier string) string {
	return identifier + ":" + t.now().Format("2006-01-02")
}

func (t *Tracker) monthKey(identifier string) string {
	return identifier + ":" + t.now().Format("2006-01")
}

// Record charges the identifier for one call of the given model.
func (t *Tracker) Record(model, identifier string) {
	c, ok := perCallCost[model]
	if !ok {
		c = defaultCost
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.dailyCosts[t.dayKey(identifier)] += c
	t.monthlyCosts[t.monthKey(identifier)] += c
	t.dailyRequests[t.dayKey(identifier)]++

	log.Printf("cost: recorded %s ($%.3f) for %s", model, c, identifier)
}

// Usage holds an identifier's accumulated spend for the current periods.
type Usage struct {
	DailyCost        float64
	MonthlyCost      float64
	DailyRequests    int
	ProjectedMonthly float64
}

// Usage reports current spend and a linear daily*30 monthly projection.
func (t *Tracker) Usage(identifier string) Usage {
	t.mu.Lock()
	defer t.mu.Unlock()

	daily := t.dailyCosts[t.dayKey(identifier)]
	return Usage{
		DailyCost:        daily,
		MonthlyCost:      t.monthlyCosts[t.monthKey(identifier)],
		DailyRequests:    t.dailyRequests[t.dayKey(identifier)],
		ProjectedMonthly: daily * 30,
	}
}

// WithinBudget reports whether the identifier may spend more. Reaching a
// limit exactly blocks the next call (>=, not >), so a ceiling of $10
// stops further calls once $10 has accumulated.
func (t *Tracker) WithinBudget(identifier string, dailyLimit, monthlyLimit float64) (bool, string) {
	u := t.Usage(identifier)

	if u.DailyCost >= dailyLimit {
		return false, fmt.Sprintf("Daily limit of $%.2f exceeded", dailyLimit)
	}
	if u.MonthlyCost >= monthlyLimit {
		return false, fmt.Sprintf("Monthly limit of $%.2f exceeded", monthlyLimit)
	}
	return true, ""
}
