package storage

import (
	"context"
	"fmt"
	"time"

	"tally/internal/core"
)

// SeedDemoData inserts a small demo dataset for first-time users when the
// store is empty. Load failures upstream fall back to an empty store, and
// seeding that empty store is how a fresh install gets something to render.
func SeedDemoData(ctx context.Context, s Store, now time.Time) error {
	expenses, err := s.ListExpensesSince(ctx, core.Today(now).AddDays(-365))
	if err != nil {
		return fmt.Errorf("check existing expenses: %w", err)
	}
	habits, err := s.ListHabits(ctx)
	if err != nil {
		return fmt.Errorf("check existing habits: %w", err)
	}
	if len(expenses) > 0 || len(habits) > 0 {
		return nil
	}

	daysAgo := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	demoExpenses := []core.Expense{
		{Amount: core.Money{Cents: 8550}, Description: "Grocery shopping", Category: core.CategoryFood, OccurredAt: daysAgo(0)},
		{Amount: core.Money{Cents: 4500}, Description: "Ride to airport", Category: core.CategoryTransport, OccurredAt: daysAgo(1)},
		{Amount: core.Money{Cents: 12000}, Description: "Electric bill", Category: core.CategoryBills, OccurredAt: daysAgo(2)},
		{Amount: core.Money{Cents: 3590}, Description: "Cinema tickets", Category: core.CategoryEntertainment, OccurredAt: daysAgo(3)},
		{Amount: core.Money{Cents: 2250}, Description: "Lunch at restaurant", Category: core.CategoryFood, OccurredAt: daysAgo(3)},
		{Amount: core.Money{Cents: 1500}, Description: "Bus monthly pass", Category: core.CategoryTransport, OccurredAt: daysAgo(5)},
		{Amount: core.Money{Cents: 2500}, Description: "Gift for a friend", Category: core.CategoryOther, OccurredAt: daysAgo(10)},
	}
	for _, e := range demoExpenses {
		if _, err := s.CreateExpense(ctx, e); err != nil {
			return fmt.Errorf("seed expense: %w", err)
		}
	}

	demoHabits := []struct {
		habit    core.Habit
		doneDays []int
	}{
		{core.Habit{Name: "Morning Run", Icon: "🏃", Color: "green", CreatedAt: daysAgo(10)}, []int{0, 1, 2, 3, 4, 5, 6}},
		{core.Habit{Name: "Read 30min", Icon: "📖", Color: "blue", CreatedAt: daysAgo(8)}, []int{1, 3, 5}},
		{core.Habit{Name: "Drink Water", Icon: "💧", Color: "purple", CreatedAt: daysAgo(7)}, []int{0, 1, 2, 3, 4, 5, 6}},
	}
	today := core.Today(now)
	for _, d := range demoHabits {
		h, err := s.CreateHabit(ctx, d.habit)
		if err != nil {
			return fmt.Errorf("seed habit: %w", err)
		}
		for _, n := range d.doneDays {
			if _, err := s.ToggleCompletion(ctx, h.ID, today.AddDays(-n)); err != nil {
				return fmt.Errorf("seed completion: %w", err)
			}
		}
	}

	return nil
}
