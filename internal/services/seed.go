package services

import (
	"context"
	"fmt"

	"expensetracker/internal/core"
)

// DemoExpenses is the sample data the tracker ships with for demos.
func DemoExpenses() []core.ExpenseInput {
	return []core.ExpenseInput{
		{Amount: core.Cents(1250), Category: core.Food, Date: core.NewDate(2025, 9, 9), Description: "Lunch"},
		{Amount: core.Cents(3000), Category: core.Transport, Date: core.NewDate(2025, 9, 8), Description: "Taxi"},
		{Amount: core.Cents(5000), Category: core.Entertainment, Date: core.NewDate(2025, 9, 7), Description: "Movie night"},
		{Amount: core.Cents(10000), Category: core.Shopping, Date: core.NewDate(2025, 9, 6), Description: "Clothes"},
		{Amount: core.Cents(7500), Category: core.Bills, Date: core.NewDate(2025, 9, 5), Description: "Electricity bill"},
	}
}

// Seed adds every input through the service.
func (s *ExpenseService) Seed(ctx context.Context, inputs []core.ExpenseInput) error {
	for i, in := range inputs {
		if _, err := s.CreateExpense(ctx, in); err != nil {
			return fmt.Errorf("seed expense %d: %w", i, err)
		}
	}
	return nil
}
