package aggregate

import (
	"time"

	"expensetracker/internal/core"
)

// View is everything a presentation layer needs after a mutation or a
// filter change. List, total and breakdown always derive from Records.
type View struct {
	Filter    FilterSpec
	Filtered  bool   // false when showing the default current-month view
	Month     string // YYYY-MM of the evaluation time
	Records   []core.Expense
	Total     core.Money
	Breakdown []core.CategoryAmount
	Warnings  map[int64]bool
}

// Over reports whether the record with id carries a budget warning.
func (v View) Over(id int64) bool {
	return v.Warnings[id]
}

// Select picks the records a view over all shows: the current calendar
// month when f is empty, otherwise the filtered records.
func Select(all []core.Expense, f FilterSpec, now time.Time) []core.Expense {
	if f.IsZero() {
		return CurrentMonthRecords(all, now)
	}
	return ApplyFilter(all, f)
}

// BuildView computes the view of all under f at time now.
func BuildView(all []core.Expense, f FilterSpec, budgets map[core.Category]core.Money, now time.Time) View {
	month := CurrentMonthRecords(all, now)
	records := Select(all, f, now)
	return View{
		Filter:    f,
		Filtered:  !f.IsZero(),
		Month:     now.Format("2006-01"),
		Records:   records,
		Total:     Total(records),
		Breakdown: BreakdownList(Breakdown(records, core.Categories), core.Categories),
		Warnings:  Warnings(records, month, budgets),
	}
}
