package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func TestBuildViewDefaultsToCurrentMonth(t *testing.T) {
	records := append(sample(),
		core.Expense{ID: 3, Amount: core.Cents(7500), Category: core.Bills, Date: core.NewDate(2025, 8, 5), Description: "Electricity bill"},
	)

	v := BuildView(records, FilterSpec{}, nil, september)
	assert.False(t, v.Filtered)
	assert.Equal(t, "2025-09", v.Month)
	assert.Equal(t, []int64{1, 2}, ids(v.Records))
	assert.Equal(t, core.Cents(4250), v.Total)
	require.Len(t, v.Breakdown, len(core.Categories))
	assert.Equal(t, core.Money{}, v.Breakdown[4].Amount)
}

func TestBuildViewWithFilterSpansMonths(t *testing.T) {
	records := append(sample(),
		core.Expense{ID: 3, Amount: core.Cents(7500), Category: core.Bills, Date: core.NewDate(2025, 8, 5), Description: "Electricity bill"},
	)

	v := BuildView(records, FilterSpec{Start: core.NewDate(2025, 8, 1)}, nil, september)
	assert.True(t, v.Filtered)
	assert.Equal(t, []int64{1, 2, 3}, ids(v.Records))
	assert.Equal(t, core.Cents(11750), v.Total)

	var sum core.Money
	for _, ca := range v.Breakdown {
		sum = sum.Add(ca.Amount)
	}
	assert.Equal(t, v.Total, sum)
}

func TestBuildViewWarnings(t *testing.T) {
	budgets := map[core.Category]core.Money{core.Food: core.Cents(1000)}
	v := BuildView(sample(), FilterSpec{Search: "lunch"}, budgets, september)
	assert.True(t, v.Over(1))
	assert.False(t, v.Over(2))

	budgets[core.Food] = core.Cents(1250)
	v = BuildView(sample(), FilterSpec{}, budgets, september)
	assert.False(t, v.Over(1))
}

func TestSelect(t *testing.T) {
	assert.Equal(t, []int64{1, 2}, ids(Select(sample(), FilterSpec{}, september)))
	assert.Equal(t, []int64{2}, ids(Select(sample(), FilterSpec{Search: "taxi"}, september)))
}

func TestFilterKey(t *testing.T) {
	a := FilterSpec{Start: core.NewDate(2025, 9, 1), Search: " Taxi "}
	b := FilterSpec{Start: core.NewDate(2025, 9, 1), Search: "taxi"}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), FilterSpec{}.Key())
	assert.True(t, FilterSpec{Search: "  "}.IsZero())
}
