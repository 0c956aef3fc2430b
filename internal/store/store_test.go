package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func input(cents int64, c core.Category, d core.Date, desc string) core.ExpenseInput {
	return core.ExpenseInput{Amount: core.Cents(cents), Category: c, Date: d, Description: desc}
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	s := New()

	first, err := s.Add(input(1250, core.Food, core.NewDate(2025, 9, 9), "Lunch"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, 1, s.Len())

	for i := 2; i <= 5; i++ {
		e, err := s.Add(input(100, core.Bills, core.NewDate(2025, 9, 1), "bill"))
		require.NoError(t, err)
		assert.Equal(t, int64(i), e.ID)
		assert.Equal(t, i, s.Len())
	}
}

// Deleting the current maximum does not hand its id out again, so the next
// id is the high-water mark plus one rather than max(existing)+1.
func TestAddNeverReusesDeletedMaxIDAboveMaxPlusOne(t *testing.T) {
	s := New()
	_, err := s.Add(input(100, core.Food, core.NewDate(2025, 9, 1), "a"))
	require.NoError(t, err)
	second, err := s.Add(input(100, core.Food, core.NewDate(2025, 9, 1), "b"))
	require.NoError(t, err)

	require.True(t, s.Remove(second.ID))
	third, err := s.Add(input(100, core.Food, core.NewDate(2025, 9, 1), "c"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID, "max(existing)+1 would be 2")
}

func TestAddRejectsInvalidWithoutMutation(t *testing.T) {
	s := New()
	_, err := s.Add(input(100, core.Food, core.NewDate(2025, 9, 1), "seed"))
	require.NoError(t, err)
	rev := s.Revision()

	bads := []core.ExpenseInput{
		input(0, core.Food, core.NewDate(2025, 9, 1), "zero"),
		input(-100, core.Food, core.NewDate(2025, 9, 1), "negative"),
		input(100, "", core.NewDate(2025, 9, 1), "no category"),
		input(100, "Travel", core.NewDate(2025, 9, 1), "bad category"),
		input(100, core.Food, core.Date{}, "no date"),
		input(100, core.Food, core.NewDate(2025, 9, 1), " "),
	}
	for _, in := range bads {
		_, err := s.Add(in)
		assert.True(t, core.IsValidation(err), "expected validation error for %+v, got %v", in, err)
	}
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, rev, s.Revision())
}

func TestAddStoresDetails(t *testing.T) {
	s := New()
	in := input(999, core.Shopping, core.NewDate(2025, 9, 6), "  Clothes ")
	in.Details = &core.Details{Tags: []string{"gift", " "}, ReceiptNote: " paper ", Recurring: true}

	e, err := s.Add(in)
	require.NoError(t, err)
	assert.Equal(t, "Clothes", e.Description)
	assert.Equal(t, []string{"gift"}, e.Tags)
	assert.Equal(t, "paper", e.ReceiptNote)
	assert.True(t, e.Recurring)

	plain, err := s.Add(input(100, core.Food, core.NewDate(2025, 9, 1), "plain"))
	require.NoError(t, err)
	assert.Empty(t, plain.Tags)
	assert.Empty(t, plain.ReceiptNote)
	assert.False(t, plain.Recurring)
}

func TestUpdate(t *testing.T) {
	s := New()
	in := input(1250, core.Food, core.NewDate(2025, 9, 9), "Lunch")
	in.Details = &core.Details{Tags: []string{"work"}}
	orig, err := s.Add(in)
	require.NoError(t, err)

	t.Run("not found", func(t *testing.T) {
		_, err := s.Update(42, input(100, core.Food, core.NewDate(2025, 9, 1), "x"))
		var nf *core.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, int64(42), nf.ID)
	})

	t.Run("invalid input leaves record untouched", func(t *testing.T) {
		_, err := s.Update(orig.ID, input(0, core.Food, core.NewDate(2025, 9, 1), "x"))
		require.True(t, core.IsValidation(err))
		got, err := s.Get(orig.ID)
		require.NoError(t, err)
		assert.Equal(t, orig, got)
	})

	t.Run("replaces fields and keeps details", func(t *testing.T) {
		updated, err := s.Update(orig.ID, input(3000, core.Transport, core.NewDate(2025, 9, 8), "Taxi"))
		require.NoError(t, err)
		assert.Equal(t, orig.ID, updated.ID)
		assert.Equal(t, core.Cents(3000), updated.Amount)
		assert.Equal(t, core.Transport, updated.Category)
		assert.Equal(t, "Taxi", updated.Description)
		assert.Equal(t, []string{"work"}, updated.Tags)
	})

	t.Run("replaces details when supplied", func(t *testing.T) {
		in := input(3000, core.Transport, core.NewDate(2025, 9, 8), "Taxi")
		in.Details = &core.Details{Recurring: true}
		updated, err := s.Update(orig.ID, in)
		require.NoError(t, err)
		assert.Empty(t, updated.Tags)
		assert.True(t, updated.Recurring)
	})
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := New()
	e, err := s.Add(input(100, core.Food, core.NewDate(2025, 9, 1), "a"))
	require.NoError(t, err)
	_, err = s.Add(input(200, core.Food, core.NewDate(2025, 9, 1), "b"))
	require.NoError(t, err)

	assert.True(t, s.Remove(e.ID))
	rev := s.Revision()
	assert.False(t, s.Remove(e.ID))
	assert.False(t, s.Remove(999))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, rev, s.Revision())
}

func TestListKeepsInsertionOrder(t *testing.T) {
	s := New()
	dates := []core.Date{core.NewDate(2025, 9, 9), core.NewDate(2025, 9, 1), core.NewDate(2025, 9, 5)}
	for _, d := range dates {
		_, err := s.Add(input(100, core.Food, d, "x"))
		require.NoError(t, err)
	}
	list := s.List()
	require.Len(t, list, 3)
	for i, d := range dates {
		assert.Equal(t, d, list[i].Date)
	}

	// callers cannot mutate the store through the returned slice
	list[0].Description = "changed"
	assert.Equal(t, "x", s.List()[0].Description)
}

func TestSetBudget(t *testing.T) {
	s := New()
	require.NoError(t, s.SetBudget(core.Food, core.Cents(1000)))
	require.NoError(t, s.SetBudget(core.Food, core.Cents(1250)))

	limit, ok := s.Budget(core.Food)
	require.True(t, ok)
	assert.Equal(t, core.Cents(1250), limit)
	assert.Len(t, s.Budgets(), 1)

	err := s.SetBudget(core.Food, core.Cents(0))
	assert.ErrorIs(t, err, core.ErrInvalidLimit)
	err = s.SetBudget("Rent", core.Cents(100))
	assert.ErrorIs(t, err, core.ErrInvalidCategory)

	_, ok = s.Budget(core.Bills)
	assert.False(t, ok)
}
