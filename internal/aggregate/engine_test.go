package aggregate

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

var september = time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC)

func sample() []core.Expense {
	return []core.Expense{
		{ID: 1, Amount: core.Cents(1250), Category: core.Food, Date: core.NewDate(2025, 9, 9), Description: "Lunch"},
		{ID: 2, Amount: core.Cents(3000), Category: core.Transport, Date: core.NewDate(2025, 9, 8), Description: "Taxi"},
	}
}

func ids(records []core.Expense) []int64 {
	out := make([]int64, len(records))
	for i, e := range records {
		out[i] = e.ID
	}
	return out
}

func randomRecords(r *rand.Rand, n int) []core.Expense {
	words := []string{"Lunch", "Taxi", "Movie night", "Clothes", "Electricity bill", "taxi home", "LUNCH box"}
	out := make([]core.Expense, n)
	for i := range out {
		out[i] = core.Expense{
			ID:          int64(i + 1),
			Amount:      core.Cents(int64(r.Intn(20000) + 1)),
			Category:    core.Categories[r.Intn(len(core.Categories))],
			Date:        core.NewDate(2025, 8+r.Intn(3), 1+r.Intn(28)),
			Description: words[r.Intn(len(words))],
		}
	}
	return out
}

func TestTotal(t *testing.T) {
	assert.Equal(t, core.Cents(4250), Total(sample()))
	assert.Equal(t, "42.5", Total(sample()).String())
	assert.Equal(t, core.Money{}, Total(nil))
}

func TestApplyFilterSearchIsCaseInsensitive(t *testing.T) {
	for _, q := range []string{"taxi", "TAXI", "TaXi", " axi "} {
		got := ApplyFilter(sample(), FilterSpec{Search: q})
		assert.Equal(t, []int64{2}, ids(got), "search %q", q)
	}
}

func TestApplyFilterDateBoundsAreInclusive(t *testing.T) {
	records := sample()

	got := ApplyFilter(records, FilterSpec{Start: core.NewDate(2025, 9, 9)})
	assert.Equal(t, []int64{1}, ids(got))

	got = ApplyFilter(records, FilterSpec{End: core.NewDate(2025, 9, 8)})
	assert.Equal(t, []int64{2}, ids(got))

	got = ApplyFilter(records, FilterSpec{Start: core.NewDate(2025, 9, 8), End: core.NewDate(2025, 9, 9)})
	assert.Equal(t, []int64{1, 2}, ids(got))

	got = ApplyFilter(records, FilterSpec{Start: core.NewDate(2025, 9, 10)})
	assert.Empty(t, got)
}

func TestApplyFilterPredicatesCommute(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	records := randomRecords(r, 200)
	start := FilterSpec{Start: core.NewDate(2025, 8, 20)}
	end := FilterSpec{End: core.NewDate(2025, 9, 25)}
	search := FilterSpec{Search: "taxi"}
	combined := ApplyFilter(records, FilterSpec{Start: start.Start, End: end.End, Search: search.Search})

	orders := [][]FilterSpec{
		{start, end, search},
		{start, search, end},
		{end, start, search},
		{end, search, start},
		{search, start, end},
		{search, end, start},
	}
	for _, order := range orders {
		got := records
		for _, f := range order {
			got = ApplyFilter(got, f)
		}
		assert.Equal(t, ids(combined), ids(got))
	}
}

func TestIdentityFilterKeepsTotal(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		records := randomRecords(r, r.Intn(50))
		assert.Equal(t, Total(records), Total(ApplyFilter(records, FilterSpec{})))
	}
}

func TestBreakdownSumsToTotal(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		records := randomRecords(r, r.Intn(50))
		b := Breakdown(records, core.Categories)
		require.Len(t, b, len(core.Categories))

		var sum core.Money
		for _, amount := range b {
			sum = sum.Add(amount)
		}
		assert.Equal(t, Total(records), sum)
	}
}

func TestBreakdownInitializesEveryCategory(t *testing.T) {
	b := Breakdown(sample(), core.Categories)
	assert.Equal(t, core.Cents(1250), b[core.Food])
	assert.Equal(t, core.Cents(3000), b[core.Transport])
	assert.Equal(t, core.Money{}, b[core.Bills])

	list := BreakdownList(b, core.Categories)
	require.Len(t, list, 5)
	assert.Equal(t, core.Food, list[0].Category)
	assert.Equal(t, core.Bills, list[4].Category)
}

func TestBreakdownIgnoresUnknownCategories(t *testing.T) {
	records := append(sample(), core.Expense{ID: 9, Amount: core.Cents(500), Category: "Rent", Date: core.NewDate(2025, 9, 1), Description: "x"})
	b := Breakdown(records, core.Categories)
	_, ok := b["Rent"]
	assert.False(t, ok)
	assert.Equal(t, core.Cents(4250), b[core.Food].Add(b[core.Transport]))
}

func TestCurrentMonthRecords(t *testing.T) {
	records := append(sample(),
		core.Expense{ID: 3, Amount: core.Cents(100), Category: core.Food, Date: core.NewDate(2025, 8, 31), Description: "August"},
		core.Expense{ID: 4, Amount: core.Cents(100), Category: core.Food, Date: core.NewDate(2024, 9, 9), Description: "Last year"},
	)
	assert.Equal(t, []int64{1, 2}, ids(CurrentMonthRecords(records, september)))
	assert.Empty(t, CurrentMonthRecords(records, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))
}

func TestIsOverBudget(t *testing.T) {
	month := CurrentMonthRecords(sample(), september)

	assert.True(t, IsOverBudget(core.Food, month, map[core.Category]core.Money{core.Food: core.Cents(1000)}))
	assert.False(t, IsOverBudget(core.Food, month, map[core.Category]core.Money{core.Food: core.Cents(1250)}))
	assert.False(t, IsOverBudget(core.Transport, month, map[core.Category]core.Money{core.Food: core.Cents(1)}))
	assert.False(t, IsOverBudget(core.Food, month, nil))
}

func TestIsOverBudgetWithoutLimitIsNeverOver(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	records := randomRecords(r, 100)
	for _, c := range core.Categories {
		assert.False(t, IsOverBudget(c, records, map[core.Category]core.Money{}))
	}
}

func TestWarnings(t *testing.T) {
	records := append(sample(),
		core.Expense{ID: 3, Amount: core.Cents(5000), Category: core.Food, Date: core.NewDate(2025, 8, 1), Description: "old feast"},
	)
	month := CurrentMonthRecords(records, september)
	budgets := map[core.Category]core.Money{core.Food: core.Cents(1000), core.Transport: core.Cents(5000)}

	w := Warnings(records, month, budgets)
	assert.True(t, w[1])
	assert.True(t, w[3], "records outside the month still show their category's warning")
	assert.False(t, w[2])
}

func TestLargeSumsStayPositive(t *testing.T) {
	big, err := core.ParseAmount("1000000000")
	require.NoError(t, err)

	records := make([]core.Expense, 100)
	for i := range records {
		records[i] = core.Expense{ID: int64(i + 1), Amount: big, Category: core.Food, Date: core.NewDate(2025, 9, 1), Description: "big"}
	}

	assert.Equal(t, int64(100)*big.Cents, Total(records).Cents)
	assert.Equal(t, int64(100)*big.Cents, Breakdown(records, core.Categories)[core.Food].Cents)
	assert.True(t, IsOverBudget(core.Food, records, map[core.Category]core.Money{core.Food: core.Cents(1)}))

	// Past the int64 range the sum saturates instead of wrapping negative.
	huge := []core.Expense{
		{ID: 1, Amount: core.Cents(math.MaxInt64 - 10), Category: core.Food, Date: core.NewDate(2025, 9, 1), Description: "a"},
		{ID: 2, Amount: core.Cents(100), Category: core.Food, Date: core.NewDate(2025, 9, 2), Description: "b"},
	}
	assert.True(t, Total(huge).GreaterThan(core.Cents(0)))
	assert.True(t, IsOverBudget(core.Food, huge, map[core.Category]core.Money{core.Food: core.Cents(1)}))
}
