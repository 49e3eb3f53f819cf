package services

import (
	"context"
	"fmt"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"
	"tally/internal/streak"
)

// HabitStats is the computed view of one habit's history.
type HabitStats struct {
	HabitID        string            `json:"habit_id"`
	Name           string            `json:"name"`
	CurrentStreak  int               `json:"current_streak"`
	LongestStreak  int               `json:"longest_streak"`
	TotalDone      int               `json:"total_done"`
	CompletionRate float64           `json:"completion_rate"`
	CompletedToday bool              `json:"completed_today"`
	Weekly         []streak.DayCount `json:"weekly"`
	Monthly        []streak.DayDone  `json:"monthly"`
}

// HabitService orchestrates habit writes and streak statistics.
type HabitService struct {
	store     storage.Store
	publisher Publisher
}

func NewHabitService(store storage.Store, publisher Publisher) *HabitService {
	return &HabitService{store: store, publisher: publisher}
}

// Add validates and persists a habit, then announces the change.
func (s *HabitService) Add(ctx context.Context, h core.Habit) (core.Habit, error) {
	created, err := s.store.CreateHabit(ctx, h)
	if err != nil {
		return core.Habit{}, fmt.Errorf("save habit: %w", err)
	}

	s.publishHabit(ctx, amqp.ActionCreated, created.ID)
	return created, nil
}

// Remove deletes a habit and its completions, then announces the change.
func (s *HabitService) Remove(ctx context.Context, id string) error {
	if err := s.store.DeleteHabit(ctx, id); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}

	s.publishHabit(ctx, amqp.ActionDeleted, id)
	return nil
}

// List returns all habits with their completion history loaded.
func (s *HabitService) List(ctx context.Context) ([]core.Habit, error) {
	return s.store.ListHabits(ctx)
}

// Toggle flips the completion for one habit on one calendar day and
// reports whether the day is marked done afterwards.
func (s *HabitService) Toggle(ctx context.Context, habitID string, day core.Day) (bool, error) {
	done, err := s.store.ToggleCompletion(ctx, habitID, day)
	if err != nil {
		return false, fmt.Errorf("toggle completion: %w", err)
	}

	s.publishHabit(ctx, amqp.ActionToggled, habitID)
	return done, nil
}

// Stats computes the full statistics view for one habit as of today.
func (s *HabitService) Stats(ctx context.Context, habitID string, today core.Day) (*HabitStats, error) {
	h, err := s.store.GetHabit(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("load habit: %w", err)
	}

	current, longest := streak.Calculate(h.Completions, today)
	return &HabitStats{
		HabitID:        h.ID,
		Name:           h.Name,
		CurrentStreak:  current,
		LongestStreak:  longest,
		TotalDone:      streak.TotalDone(h.Completions),
		CompletionRate: streak.Rate(h.Completions, h.CreatedAt, today),
		CompletedToday: streak.CompletedOn(h.Completions, today),
		Weekly:         streak.WeeklyCompletions(h.Completions, 4, today),
		Monthly:        streak.MonthlyCompletionRate(h.Completions, 2, today),
	}, nil
}

func (s *HabitService) publishHabit(ctx context.Context, action, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, amqp.NewChangeEvent(amqp.KindHabit, action, id)); err != nil {
		logPublishFailure(ctx, amqp.KindHabit, action, id, err)
	}
}
