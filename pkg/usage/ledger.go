// Package usage accumulates per-day, per-tier synthesis counts and cost.
package usage

import (
	"context"
	"time"

	"beyondwords/pkg/statefile"
)

const dayFormat = "2006-01-02"

// Ledger records invocation counts and estimated cost per (day, tier).
// All mutations are synchronized through the shared state document.
type Ledger struct {
	file *statefile.File

	// now is injectable for tests.
	now func() time.Time
}

// NewLedger creates a Ledger on top of the shared state document.
func NewLedger(file *statefile.File) *Ledger {
	return &Ledger{file: file, now: time.Now}
}

// Record appends one invocation with the given cost estimate to the current
// day's bucket for the tier, and adds the cost to the lifetime total.
func (l *Ledger) Record(ctx context.Context, tier string, cost float64) error {
	if cost < 0 {
		cost = 0
	}
	day := l.now().UTC().Format(dayFormat)

	return l.file.Update(func(doc *statefile.Document) error {
		tiers, ok := doc.DailyUsage[day]
		if !ok {
			tiers = make(map[string]statefile.TierUsage)
			doc.DailyUsage[day] = tiers
		}
		u := tiers[tier]
		u.Count++
		u.Cost += cost
		tiers[tier] = u

		doc.TotalCost += cost
		return nil
	})
}

// Reset clears all daily buckets and stamps the reset time.
// The lifetime total cost is preserved.
func (l *Ledger) Reset(ctx context.Context) error {
	return l.file.Update(func(doc *statefile.Document) error {
		doc.DailyUsage = make(map[string]map[string]statefile.TierUsage)
		doc.LastReset = l.now().UTC().Format(time.RFC3339)
		return nil
	})
}

// Snapshot is a read-only copy of the ledger state.
type Snapshot struct {
	Daily     map[string]map[string]statefile.TierUsage `json:"daily_usage"`
	TotalCost float64                                   `json:"total_cost"`
	LastReset string                                    `json:"last_reset,omitempty"`
}

// Snapshot returns a copy of the current ledger state.
func (l *Ledger) Snapshot(ctx context.Context) Snapshot {
	var snap Snapshot
	l.file.View(func(doc statefile.Document) {
		snap = Snapshot{
			Daily:     doc.DailyUsage,
			TotalCost: doc.TotalCost,
			LastReset: doc.LastReset,
		}
	})
	return snap
}

// TodayUsage returns the current day's bucket for a tier.
func (l *Ledger) TodayUsage(ctx context.Context, tier string) statefile.TierUsage {
	day := l.now().UTC().Format(dayFormat)
	var u statefile.TierUsage
	l.file.View(func(doc statefile.Document) {
		if tiers, ok := doc.DailyUsage[day]; ok {
			u = tiers[tier]
		}
	})
	return u
}
