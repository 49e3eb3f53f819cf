package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
	"tally/internal/streak"
	"tally/internal/summary"
)

// StatsWorker consumes record change events and persists refreshed
// aggregate snapshots. Snapshots are a durable history of the numbers
// the dashboard shows, recomputed off the request path.
type StatsWorker struct {
	store storage.Store
	now   func() time.Time
}

func NewStatsWorker(store storage.Store) *StatsWorker {
	return &StatsWorker{store: store, now: time.Now}
}

// HandleChangeEvent recomputes the aggregates touched by one event.
// A missing habit is not an error: the record may have been deleted
// between publish and delivery.
func (w *StatsWorker) HandleChangeEvent(ctx context.Context, ev *amqp.ChangeEvent) error {
	slog.InfoContext(ctx, "Processing change event",
		"kind", ev.Kind,
		"action", ev.Action,
		"id", ev.ID)

	switch ev.Kind {
	case amqp.KindExpense:
		return w.snapshotExpenses(ctx)
	case amqp.KindHabit:
		if ev.Action == amqp.ActionDeleted {
			return nil
		}
		return w.snapshotHabit(ctx, ev.ID)
	default:
		slog.WarnContext(ctx, "Unknown event kind, dropping", "kind", ev.Kind)
		return nil
	}
}

// RecalcAll refreshes every aggregate. The worker runs it once at
// startup and then periodically to recover from missed events.
func (w *StatsWorker) RecalcAll(ctx context.Context) error {
	if err := w.snapshotExpenses(ctx); err != nil {
		return fmt.Errorf("startup expense snapshot: %w", err)
	}

	habits, err := w.store.ListHabits(ctx)
	if err != nil {
		return fmt.Errorf("list habits: %w", err)
	}

	errorCount := 0
	for _, h := range habits {
		if err := w.snapshotHabit(ctx, h.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to snapshot habit on startup",
				"habit_id", h.ID, "error", err)
			errorCount++
		}
	}

	slog.InfoContext(ctx, "Startup recalculation completed",
		"habits", len(habits),
		"errors", errorCount)
	return nil
}

func (w *StatsWorker) snapshotExpenses(ctx context.Context) error {
	now := w.now()
	today := core.Today(now)
	year, month := today.Year(), today.Month()

	expenses, err := w.store.ListExpenses(ctx, year, month)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	snap := storage.Snapshot{
		Kind:         storage.SnapshotKindExpenses,
		TotalCents:   summary.MonthlyTotal(expenses, year, month).Cents,
		ExpenseCount: int64(summary.MonthlyCount(expenses, year, month)),
		TakenAt:      now,
	}
	if err := w.store.InsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("insert expense snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Saved expense snapshot",
		"year", year,
		"month", int(month),
		"total_cents", snap.TotalCents,
		"count", snap.ExpenseCount)
	return nil
}

func (w *StatsWorker) snapshotHabit(ctx context.Context, habitID string) error {
	now := w.now()
	today := core.Today(now)

	h, err := w.store.GetHabit(ctx, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Habit gone before snapshot, skipping", "habit_id", habitID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load habit: %w", err)
	}

	current, longest := streak.Calculate(h.Completions, today)
	snap := storage.Snapshot{
		Kind:          storage.SnapshotKindHabit,
		Ref:           h.ID,
		CurrentStreak: int64(current),
		LongestStreak: int64(longest),
		TakenAt:       now,
	}
	if err := w.store.InsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("insert habit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Saved habit snapshot",
		"habit_id", h.ID,
		"current_streak", current,
		"longest_streak", longest)
	return nil
}
