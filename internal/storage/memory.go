package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
)

// MemoryStore is an in-process Store used as the default backend when no
// SQLite path is configured, and by tests. All reads return copies, so a
// caller always aggregates over an immutable snapshot.
type MemoryStore struct {
	mu        sync.Mutex
	expenses  []core.Expense
	habits    []core.Habit
	snapshots []Snapshot
	nextSnap  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextSnap: 1}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Category = core.ParseCategory(string(e.Category))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *MemoryStore) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListExpenses(_ context.Context, year int, month time.Month) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if core.DayOf(e.OccurredAt).SameMonth(year, month) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListExpensesSince(_ context.Context, from core.Day) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if !core.DayOf(e.OccurredAt).Before(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateHabit(_ context.Context, h core.Habit) (core.Habit, error) {
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	h.Completions = copyCompletions(h.Completions)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits = append(s.habits, h)
	return copyHabit(h), nil
}

func (s *MemoryStore) DeleteHabit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.habits {
		if h.ID == id {
			// Completions are owned by the habit; dropping the habit drops
			// its whole history.
			s.habits = append(s.habits[:i], s.habits[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) GetHabit(_ context.Context, id string) (core.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.habits {
		if h.ID == id {
			return copyHabit(h), nil
		}
	}
	return core.Habit{}, ErrNotFound
}

func (s *MemoryStore) ListHabits(_ context.Context) ([]core.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		out = append(out, copyHabit(h))
	}
	return out, nil
}

func (s *MemoryStore) ToggleCompletion(_ context.Context, habitID string, day core.Day) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.habits {
		if s.habits[i].ID != habitID {
			continue
		}
		kept := s.habits[i].Completions[:0]
		removed := false
		for _, c := range s.habits[i].Completions {
			if core.DayOf(c.Date) == day {
				removed = true
				continue
			}
			kept = append(kept, c)
		}
		if removed {
			s.habits[i].Completions = kept
			return false, nil
		}
		y, m, d := day.Date()
		s.habits[i].Completions = append(s.habits[i].Completions, core.Completion{
			Date:   time.Date(y, m, d, 12, 0, 0, 0, time.Local),
			Status: core.StatusDone,
		})
		return true, nil
	}
	return false, ErrNotFound
}

func (s *MemoryStore) InsertSnapshot(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}
	snap.ID = s.nextSnap
	s.nextSnap++
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, limit int) ([]Snapshot, error) {
	if limit < 1 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, 0, limit)
	for i := len(s.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.snapshots[i])
	}
	return out, nil
}

func copyHabit(h core.Habit) core.Habit {
	h.Completions = copyCompletions(h.Completions)
	return h
}

func copyCompletions(in []core.Completion) []core.Completion {
	if in == nil {
		return nil
	}
	out := make([]core.Completion, len(in))
	copy(out, in)
	return out
}

var _ Store = (*MemoryStore)(nil)
