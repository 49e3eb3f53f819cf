package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
	"tally/internal/summary"
)

// Publisher emits change events after a successful write. The AMQP
// client satisfies it; a nil publisher disables eventing.
type Publisher interface {
	PublishChange(ctx context.Context, ev *amqp.ChangeEvent) error
}

// MonthlySummary is the aggregate view of one calendar month.
type MonthlySummary struct {
	Year         int                     `json:"year"`
	Month        int                     `json:"month"`
	TotalCents   int64                   `json:"total_cents"`
	ExpenseCount int                     `json:"expense_count"`
	AverageCents int64                   `json:"daily_average_cents"`
	ByCategory   []summary.CategoryTotal `json:"by_category"`
}

// ExpenseService orchestrates expense writes and month aggregates
// across the store and the event publisher.
type ExpenseService struct {
	store     storage.Store
	publisher Publisher
}

func NewExpenseService(store storage.Store, publisher Publisher) *ExpenseService {
	return &ExpenseService{store: store, publisher: publisher}
}

// Add validates and persists an expense, then announces the change.
func (s *ExpenseService) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.KindExpense, amqp.ActionCreated, created.ID)
	return created, nil
}

// Remove soft deletes an expense and announces the change.
func (s *ExpenseService) Remove(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.KindExpense, amqp.ActionDeleted, id)
	return nil
}

// ListMonth returns the raw expenses of one calendar month.
func (s *ExpenseService) ListMonth(ctx context.Context, year int, month time.Month) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, year, month)
}

// Summarize computes the monthly aggregate view. The caller supplies
// today so the daily average stays reproducible.
func (s *ExpenseService) Summarize(ctx context.Context, year int, month time.Month, today core.Day) (*MonthlySummary, error) {
	expenses, err := s.store.ListExpenses(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	return &MonthlySummary{
		Year:         year,
		Month:        int(month),
		TotalCents:   summary.MonthlyTotal(expenses, year, month).Cents,
		ExpenseCount: summary.MonthlyCount(expenses, year, month),
		AverageCents: summary.DailyAverage(expenses, year, month, today).Cents,
		ByCategory:   summary.CategoryBreakdown(expenses, year, month),
	}, nil
}

// DailySpending returns per-day totals for the window ending today.
func (s *ExpenseService) DailySpending(ctx context.Context, daysBack int, today core.Day) ([]summary.DayTotal, error) {
	expenses, err := s.store.ListExpensesSince(ctx, today.AddDays(-daysBack))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return summary.DailySpending(expenses, daysBack, today), nil
}

// Snapshots returns the most recent persisted aggregate snapshots.
func (s *ExpenseService) Snapshots(ctx context.Context, limit int) ([]storage.Snapshot, error) {
	return s.store.ListSnapshots(ctx, limit)
}

func (s *ExpenseService) publish(ctx context.Context, kind, action, id string) {
	if s.publisher == nil {
		return
	}
	// The write already succeeded, a broker failure must not fail the
	// request.
	if err := s.publisher.PublishChange(ctx, amqp.NewChangeEvent(kind, action, id)); err != nil {
		logPublishFailure(ctx, kind, action, id, err)
	}
}

func logPublishFailure(ctx context.Context, kind, action, id string, err error) {
	slog.ErrorContext(ctx, "Failed to publish change event",
		"kind", kind, "action", action, "id", id, "error", err)
}
