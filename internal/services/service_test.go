package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
)

type capturingPublisher struct {
	events []*amqp.ChangeEvent
	err    error
}

func (p *capturingPublisher) PublishChange(_ context.Context, ev *amqp.ChangeEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func expenseOn(day core.Day, cents int64, cat core.Category) core.Expense {
	return core.Expense{
		Amount:      core.Money{Cents: cents},
		Description: "test expense",
		Category:    cat,
		OccurredAt:  day.Time(),
	}
}

func TestExpenseServiceAddPublishesEvent(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := &capturingPublisher{}
	svc := NewExpenseService(store, pub)
	ctx := context.Background()

	created, err := svc.Add(ctx, expenseOn(core.NewDay(2026, time.August, 15), 1250, core.CategoryFood))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.KindExpense, pub.events[0].Kind)
	assert.Equal(t, amqp.ActionCreated, pub.events[0].Action)
	assert.Equal(t, created.ID, pub.events[0].ID)
}

func TestExpenseServiceAddRejectsInvalid(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := &capturingPublisher{}
	svc := NewExpenseService(store, pub)

	_, err := svc.Add(context.Background(), core.Expense{
		Amount:      core.Money{Cents: 0},
		Description: "free lunch",
		Category:    core.CategoryFood,
		OccurredAt:  time.Now(),
	})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, pub.events, "no event for a rejected write")
}

func TestExpenseServicePublishFailureDoesNotFailWrite(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(store, pub)

	created, err := svc.Add(context.Background(), expenseOn(core.NewDay(2026, time.August, 15), 900, core.CategoryBills))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestExpenseServiceNilPublisher(t *testing.T) {
	svc := NewExpenseService(storage.NewMemoryStore(), nil)

	created, err := svc.Add(context.Background(), expenseOn(core.NewDay(2026, time.August, 15), 900, core.CategoryOther))
	require.NoError(t, err)

	err = svc.Remove(context.Background(), created.ID)
	require.NoError(t, err)
}

func TestExpenseServiceRemoveMissing(t *testing.T) {
	svc := NewExpenseService(storage.NewMemoryStore(), nil)

	err := svc.Remove(context.Background(), "no-such-id")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExpenseServiceSummarize(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewExpenseService(store, nil)
	ctx := context.Background()
	today := core.NewDay(2026, time.August, 10)

	_, err := svc.Add(ctx, expenseOn(core.NewDay(2026, time.August, 3), 4000, core.CategoryFood))
	require.NoError(t, err)
	_, err = svc.Add(ctx, expenseOn(core.NewDay(2026, time.August, 7), 6000, core.CategoryTransport))
	require.NoError(t, err)
	_, err = svc.Add(ctx, expenseOn(core.NewDay(2026, time.July, 30), 9999, core.CategoryFood))
	require.NoError(t, err)

	sum, err := svc.Summarize(ctx, 2026, time.August, today)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), sum.TotalCents)
	assert.Equal(t, 2, sum.ExpenseCount)
	assert.Equal(t, int64(1000), sum.AverageCents, "10000 cents over 10 elapsed days")
	require.Len(t, sum.ByCategory, 2)
	assert.Equal(t, core.CategoryTransport, sum.ByCategory[0].Category)
}

func TestExpenseServiceDailySpendingWindow(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewExpenseService(store, nil)
	ctx := context.Background()
	today := core.NewDay(2026, time.August, 31)

	_, err := svc.Add(ctx, expenseOn(today, 500, core.CategoryFood))
	require.NoError(t, err)
	_, err = svc.Add(ctx, expenseOn(today.AddDays(-3), 700, core.CategoryBills))
	require.NoError(t, err)

	days, err := svc.DailySpending(ctx, 6, today)
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, int64(500), days[6].Cents)
	assert.Equal(t, int64(700), days[3].Cents)
	assert.Equal(t, int64(0), days[0].Cents)
}

func TestHabitServiceToggleAndStats(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := &capturingPublisher{}
	svc := NewHabitService(store, pub)
	ctx := context.Background()
	today := core.NewDay(2026, time.August, 31)

	habit, err := svc.Add(ctx, core.Habit{
		Name:      "Morning Run",
		Icon:      "🏃",
		Color:     "#FF6B6B",
		CreatedAt: today.AddDays(-10).Time(),
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		done, err := svc.Toggle(ctx, habit.ID, today.AddDays(-i))
		require.NoError(t, err)
		assert.True(t, done)
	}

	stats, err := svc.Stats(ctx, habit.ID, today)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.LongestStreak)
	assert.Equal(t, 3, stats.TotalDone)
	assert.True(t, stats.CompletedToday)
	assert.InDelta(t, 30.0, stats.CompletionRate, 0.001)
	assert.Len(t, stats.Weekly, 4*7+1)
	assert.Len(t, stats.Monthly, 2*30+1)

	// created + three toggles
	require.Len(t, pub.events, 4)
	assert.Equal(t, amqp.ActionCreated, pub.events[0].Action)
	assert.Equal(t, amqp.ActionToggled, pub.events[1].Action)
}

func TestHabitServiceToggleOffClearsDay(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewHabitService(store, nil)
	ctx := context.Background()
	today := core.NewDay(2026, time.August, 31)

	habit, err := svc.Add(ctx, core.Habit{Name: "Read", CreatedAt: today.Time()})
	require.NoError(t, err)

	done, err := svc.Toggle(ctx, habit.ID, today)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = svc.Toggle(ctx, habit.ID, today)
	require.NoError(t, err)
	assert.False(t, done)

	stats, err := svc.Stats(ctx, habit.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalDone)
	assert.False(t, stats.CompletedToday)
}

func TestHabitServiceStatsMissingHabit(t *testing.T) {
	svc := NewHabitService(storage.NewMemoryStore(), nil)

	_, err := svc.Stats(context.Background(), "ghost", core.NewDay(2026, time.August, 31))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHabitServiceRemovePublishes(t *testing.T) {
	store := storage.NewMemoryStore()
	pub := &capturingPublisher{}
	svc := NewHabitService(store, pub)
	ctx := context.Background()

	habit, err := svc.Add(ctx, core.Habit{Name: "Stretch", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, habit.ID))

	_, err = store.GetHabit(ctx, habit.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, amqp.ActionDeleted, last.Action)
	assert.Equal(t, habit.ID, last.ID)
}
