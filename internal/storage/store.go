package storage

import (
	"context"
	"errors"
	"time"

	"tally/internal/core"
)

var ErrNotFound = errors.New("record not found")

// Snapshot is a point-in-time aggregate persisted by the stats worker.
// KindExpenses rows carry the month total and count; KindHabit rows carry
// the streak pair for one habit.
type Snapshot struct {
	ID            int64     `json:"id"`
	Kind          string    `json:"kind"`
	Ref           string    `json:"ref,omitempty"`
	TotalCents    int64     `json:"total_cents,omitempty"`
	ExpenseCount  int64     `json:"expense_count,omitempty"`
	CurrentStreak int64     `json:"current_streak,omitempty"`
	LongestStreak int64     `json:"longest_streak,omitempty"`
	TakenAt       time.Time `json:"taken_at"`
}

const (
	SnapshotKindExpenses = "expenses"
	SnapshotKindHabit    = "habit"
)

// Store is the persistence boundary. Implementations hand the aggregation
// layer pre-loaded record collections and accept whole-record writes; the
// pure functions never touch persistence directly.
type Store interface {
	// Expenses
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, year int, month time.Month) ([]core.Expense, error)
	ListExpensesSince(ctx context.Context, from core.Day) ([]core.Expense, error)

	// Habits. Each habit embeds its full completion history; completions
	// have no lifecycle outside their habit.
	CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	GetHabit(ctx context.Context, id string) (core.Habit, error)
	ListHabits(ctx context.Context) ([]core.Habit, error)

	// ToggleCompletion finds, creates or removes the done completion for
	// the habit on the given calendar day. It reports whether the day is
	// marked done after the call.
	ToggleCompletion(ctx context.Context, habitID string, day core.Day) (bool, error)

	// Snapshots
	InsertSnapshot(ctx context.Context, s Snapshot) error
	ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error)

	Close() error
}
