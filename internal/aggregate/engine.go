// Package aggregate derives totals, category breakdowns and budget warnings
// from a set of expense records. Every function is pure: callers re-invoke
// them after each store mutation or filter change.
package aggregate

import (
	"strings"
	"time"

	"expensetracker/internal/core"
)

// FilterSpec narrows the records considered for display and export.
// Zero values mean "no constraint".
type FilterSpec struct {
	Start  core.Date // inclusive
	End    core.Date // inclusive
	Search string    // case-insensitive substring of the description
}

// IsZero reports whether no constraint is active.
func (f FilterSpec) IsZero() bool {
	return f.Start.IsEmpty() && f.End.IsEmpty() && strings.TrimSpace(f.Search) == ""
}

// Key identifies the filter for caching.
func (f FilterSpec) Key() string {
	return f.Start.String() + "|" + f.End.String() + "|" + strings.ToLower(strings.TrimSpace(f.Search))
}

// Match reports whether e satisfies every active predicate.
func (f FilterSpec) Match(e core.Expense) bool {
	if !f.Start.IsEmpty() && e.Date.Compare(f.Start) < 0 {
		return false
	}
	if !f.End.IsEmpty() && e.Date.Compare(f.End) > 0 {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(e.Description), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

// ApplyFilter returns the records matching f, preserving input order.
func ApplyFilter(records []core.Expense, f FilterSpec) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Total sums the amounts of records.
func Total(records []core.Expense) core.Money {
	var total core.Money
	for _, e := range records {
		total = total.Add(e.Amount)
	}
	return total
}

// CurrentMonthRecords returns the records dated in the calendar month of now.
func CurrentMonthRecords(all []core.Expense, now time.Time) []core.Expense {
	out := make([]core.Expense, 0, len(all))
	for _, e := range all {
		if e.Date.SameMonth(now) {
			out = append(out, e)
		}
	}
	return out
}

// Breakdown sums amounts per category. Every listed category is present,
// records in unlisted categories are ignored.
func Breakdown(records []core.Expense, categories []core.Category) map[core.Category]core.Money {
	out := make(map[core.Category]core.Money, len(categories))
	for _, c := range categories {
		out[c] = core.Money{}
	}
	for _, e := range records {
		sum, ok := out[e.Category]
		if !ok {
			continue
		}
		out[e.Category] = sum.Add(e.Amount)
	}
	return out
}

// BreakdownList orders a breakdown by categories.
func BreakdownList(b map[core.Category]core.Money, categories []core.Category) []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(categories))
	for _, c := range categories {
		out = append(out, core.CategoryAmount{Category: c, Amount: b[c]})
	}
	return out
}

// IsOverBudget reports whether spending in category across periodRecords
// strictly exceeds its limit. A category without a limit is never over.
func IsOverBudget(category core.Category, periodRecords []core.Expense, budgets map[core.Category]core.Money) bool {
	limit, ok := budgets[category]
	if !ok {
		return false
	}
	var spent core.Money
	for _, e := range periodRecords {
		if e.Category == category {
			spent = spent.Add(e.Amount)
		}
	}
	return spent.GreaterThan(limit)
}

// Warnings flags each record whose category is over budget in monthRecords.
func Warnings(records, monthRecords []core.Expense, budgets map[core.Category]core.Money) map[int64]bool {
	over := make(map[core.Category]bool, len(budgets))
	for c := range budgets {
		over[c] = IsOverBudget(c, monthRecords, budgets)
	}
	out := make(map[int64]bool, len(records))
	for _, e := range records {
		if over[e.Category] {
			out[e.ID] = true
		}
	}
	return out
}
