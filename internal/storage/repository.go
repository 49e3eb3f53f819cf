package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists expenses, habits and snapshots in a local SQLite
// database. Timestamps are stored as unix seconds and converted back into
// the repository's location on read, so calendar normalization downstream
// sees the viewer's local days.
type SQLiteRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath, migrationsFS); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db, loc: time.Local}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).In(r.loc)
}

// dayAnchor returns noon of the given day in the repository's location.
// Day-valued timestamps are stored at this anchor so the unix round trip
// through fromUnix cannot shift them onto a neighbouring calendar day.
func (r *SQLiteRepository) dayAnchor(day core.Day) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, r.loc)
}

// CreateExpense validates and stores an expense, assigning its identity.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	// Callers hand in any instant on the expense's day, often a bare
	// midnight. Re-anchor it so the stored day survives the round trip.
	e.OccurredAt = r.dayAnchor(core.DayOf(e.OccurredAt))

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, amount_cents, description, category, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount.Cents, e.Description, string(e.Category),
		e.OccurredAt.Unix(), e.CreatedAt.Unix())
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return e, nil
}

// DeleteExpense soft-deletes an expense; aggregation reads skip deleted
// rows.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) listExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, description, category, occurred_at, created_at
		FROM expenses
		WHERE deleted_at IS NULL
		ORDER BY occurred_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e                     core.Expense
			category              string
			occurredAt, createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &e.Description, &category, &occurredAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		// Parse-with-default at the storage boundary: unknown tags in old
		// rows normalize here, never at read sites.
		e.Category = core.ParseCategory(category)
		e.OccurredAt = r.fromUnix(occurredAt)
		e.CreatedAt = r.fromUnix(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListExpenses returns the expenses whose calendar day falls in the given
// month.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, year int, month time.Month) ([]core.Expense, error) {
	all, err := r.listExpenses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(all))
	for _, e := range all {
		if core.DayOf(e.OccurredAt).SameMonth(year, month) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListExpensesSince returns the expenses on or after the given day.
func (r *SQLiteRepository) ListExpensesSince(ctx context.Context, from core.Day) ([]core.Expense, error) {
	all, err := r.listExpenses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(all))
	for _, e := range all {
		if !core.DayOf(e.OccurredAt).Before(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateHabit validates and stores a habit.
func (r *SQLiteRepository) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO habits (id, name, icon, color, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.Icon, h.Color, h.CreatedAt.Unix())
	if err != nil {
		return core.Habit{}, fmt.Errorf("insert habit: %w", err)
	}

	slog.InfoContext(ctx, "Habit saved", "id", h.ID, "name", h.Name)
	h.Completions = nil
	return h, nil
}

// DeleteHabit removes a habit and, through the cascade constraint, all of
// its completions.
func (r *SQLiteRepository) DeleteHabit(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete habit rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) loadCompletions(ctx context.Context, habitID string) ([]core.Completion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT completed_at, status
		FROM completions
		WHERE habit_id = ?
		ORDER BY id`, habitID)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	var out []core.Completion
	for rows.Next() {
		var (
			completedAt int64
			status      string
		)
		if err := rows.Scan(&completedAt, &status); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		out = append(out, core.Completion{
			Date:   r.fromUnix(completedAt),
			Status: core.ParseStatus(status),
		})
	}
	return out, rows.Err()
}

// GetHabit loads a habit with its full completion history.
func (r *SQLiteRepository) GetHabit(ctx context.Context, id string) (core.Habit, error) {
	var (
		h         core.Habit
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, icon, color, created_at FROM habits WHERE id = ?`, id).
		Scan(&h.ID, &h.Name, &h.Icon, &h.Color, &createdAt)
	if err == sql.ErrNoRows {
		return core.Habit{}, ErrNotFound
	}
	if err != nil {
		return core.Habit{}, fmt.Errorf("get habit: %w", err)
	}
	h.CreatedAt = r.fromUnix(createdAt)

	h.Completions, err = r.loadCompletions(ctx, id)
	if err != nil {
		return core.Habit{}, err
	}
	return h, nil
}

// ListHabits loads all habits, each with its completions, oldest first.
func (r *SQLiteRepository) ListHabits(ctx context.Context) ([]core.Habit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, icon, color, created_at FROM habits ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	var out []core.Habit
	for rows.Next() {
		var (
			h         core.Habit
			createdAt int64
		)
		if err := rows.Scan(&h.ID, &h.Name, &h.Icon, &h.Color, &createdAt); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		h.CreatedAt = r.fromUnix(createdAt)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Completions, err = r.loadCompletions(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ToggleCompletion marks the habit done on the given day, or un-marks it if
// a completion for that calendar day already exists. The whole
// find-or-create-or-remove step runs in one transaction, keeping at most one
// done completion per day per habit.
func (r *SQLiteRepository) ToggleCompletion(ctx context.Context, habitID string, day core.Day) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin toggle: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM habits WHERE id = ?`, habitID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check habit: %w", err)
	}
	if exists == 0 {
		return false, ErrNotFound
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, completed_at FROM completions WHERE habit_id = ?`, habitID)
	if err != nil {
		return false, fmt.Errorf("query completions: %w", err)
	}
	var sameDayIDs []int64
	for rows.Next() {
		var (
			id          int64
			completedAt int64
		)
		if err := rows.Scan(&id, &completedAt); err != nil {
			rows.Close()
			return false, fmt.Errorf("scan completion: %w", err)
		}
		if core.DayOf(r.fromUnix(completedAt)) == day {
			sameDayIDs = append(sameDayIDs, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}

	done := false
	if len(sameDayIDs) > 0 {
		// Remove every same-day entry, tolerating duplicates written by
		// older code paths.
		for _, id := range sameDayIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM completions WHERE id = ?`, id); err != nil {
				return false, fmt.Errorf("remove completion: %w", err)
			}
		}
	} else {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO completions (habit_id, completed_at, status)
			VALUES (?, ?, ?)`,
			habitID, r.dayAnchor(day).Unix(), string(core.StatusDone)); err != nil {
			return false, fmt.Errorf("insert completion: %w", err)
		}
		done = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle: %w", err)
	}

	slog.InfoContext(ctx, "Completion toggled",
		"habit_id", habitID,
		"day", day.String(),
		"done", done)

	return done, nil
}

// InsertSnapshot persists one aggregate snapshot row.
func (r *SQLiteRepository) InsertSnapshot(ctx context.Context, s Snapshot) error {
	if s.TakenAt.IsZero() {
		s.TakenAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stat_snapshots (kind, ref, total_cents, expense_count, current_streak, longest_streak, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Kind, s.Ref, s.TotalCents, s.ExpenseCount, s.CurrentStreak, s.LongestStreak, s.TakenAt.Unix())
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, ref, total_cents, expense_count, current_streak, longest_streak, taken_at
		FROM stat_snapshots
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s       Snapshot
			takenAt int64
		)
		if err := rows.Scan(&s.ID, &s.Kind, &s.Ref, &s.TotalCents, &s.ExpenseCount,
			&s.CurrentStreak, &s.LongestStreak, &takenAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.TakenAt = r.fromUnix(takenAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ Store = (*SQLiteRepository)(nil)
