package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := applog.New(applog.DefaultConfig())
	s := NewServer("127.0.0.1:0",
		services.NewExpenseService(store, nil),
		services.NewHabitService(store, nil),
		logger,
		Options{CacheSize: 16, CacheTTL: time.Minute, SnapshotLimit: 50})
	t.Cleanup(func() { s.janitor.Stop(); s.limiter.stop() })
	return s, store
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = doJSON(t, s, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateExpense(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"amount":      "12,50",
		"description": "lunch",
		"category":    "food",
		"date":        "2026-08-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created core.Expense
	decodeInto(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1250), created.Amount.Cents)
	assert.Equal(t, core.CategoryFood, created.Category)
}

func TestCreateExpenseValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"zero amount", map[string]string{"amount": "0", "description": "x", "category": "food"}},
		{"negative amount", map[string]string{"amount": "-5", "description": "x", "category": "food"}},
		{"malformed amount", map[string]string{"amount": "abc", "description": "x", "category": "food"}},
		{"bad date", map[string]string{"amount": "5", "description": "x", "category": "food", "date": "15/08/2026"}},
		{"empty description", map[string]string{"amount": "5", "description": "   ", "category": "food"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/expenses", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateExpenseUnknownCategoryNormalizes(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"amount":      "8.00",
		"description": "mystery",
		"category":    "gadgets",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created core.Expense
	decodeInto(t, rec, &created)
	assert.Equal(t, core.CategoryOther, created.Category)
}

func TestDeleteExpense(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"amount": "5", "description": "coffee", "category": "food",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created core.Expense
	decodeInto(t, rec, &created)

	rec = doJSON(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryReflectsWrites(t *testing.T) {
	s, _ := newTestServer(t)
	now := time.Now()
	path := fmt.Sprintf("/api/summary?year=%d&month=%d", now.Year(), int(now.Month()))

	rec := doJSON(t, s, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var before services.MonthlySummary
	decodeInto(t, rec, &before)
	assert.Equal(t, int64(0), before.TotalCents)

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"amount": "30", "description": "groceries", "category": "food",
		"date": core.Today(now).String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The cached empty summary must not survive the write.
	rec = doJSON(t, s, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after services.MonthlySummary
	decodeInto(t, rec, &after)
	assert.Equal(t, int64(3000), after.TotalCents)
	assert.Equal(t, 1, after.ExpenseCount)
}

func TestSummaryRejectsBadMonth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/summary?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/summary?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailySpendingWindow(t *testing.T) {
	s, _ := newTestServer(t)
	today := core.Today(time.Now())

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]string{
		"amount": "7", "description": "bus", "category": "transport",
		"date": today.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/summary/daily?days=6", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var days []map[string]any
	decodeInto(t, rec, &days)
	require.Len(t, days, 7)
	assert.Equal(t, today.String(), days[6]["day"])
	assert.Equal(t, float64(700), days[6]["total_cents"])
}

func TestHabitLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/habits", map[string]string{
		"name": "Morning Run", "icon": "🏃", "color": "#FF6B6B",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var habit core.Habit
	decodeInto(t, rec, &habit)
	require.NotEmpty(t, habit.ID)

	rec = doJSON(t, s, http.MethodPost, "/api/habits/"+habit.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled toggleResponse
	decodeInto(t, rec, &toggled)
	assert.True(t, toggled.Done)

	rec = doJSON(t, s, http.MethodGet, "/api/habits/"+habit.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats services.HabitStats
	decodeInto(t, rec, &stats)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.TotalDone)
	assert.True(t, stats.CompletedToday)

	// Toggling the same day off must flush the cached stats.
	rec = doJSON(t, s, http.MethodPost, "/api/habits/"+habit.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &toggled)
	assert.False(t, toggled.Done)

	rec = doJSON(t, s, http.MethodGet, "/api/habits/"+habit.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &stats)
	assert.Equal(t, 0, stats.TotalDone)

	rec = doJSON(t, s, http.MethodDelete, "/api/habits/"+habit.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/habits/"+habit.ID+"/stats", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleWithExplicitDate(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/habits", map[string]string{"name": "Read"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var habit core.Habit
	decodeInto(t, rec, &habit)

	yesterday := core.Today(time.Now()).AddDays(-1)
	rec = doJSON(t, s, http.MethodPost, "/api/habits/"+habit.ID+"/toggle", map[string]string{
		"date": yesterday.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var toggled toggleResponse
	decodeInto(t, rec, &toggled)
	assert.True(t, toggled.Done)
	assert.Equal(t, yesterday, toggled.Day)
}

func TestToggleMissingHabit(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/habits/ghost/toggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateHabitValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/habits", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotsEndpoint(t *testing.T) {
	s, store := newTestServer(t)

	err := store.InsertSnapshot(context.Background(), storage.Snapshot{
		Kind:       storage.SnapshotKindExpenses,
		TotalCents: 4200,
		TakenAt:    time.Now(),
	})
	require.NoError(t, err)

	rec := doJSON(t, s, http.MethodGet, "/api/snapshots?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snaps []storage.Snapshot
	decodeInto(t, rec, &snaps)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(4200), snaps[0].TotalCents)
}

func TestWriteRateLimit(t *testing.T) {
	s, _ := newTestServer(t)

	var lastCode int
	for i := 0; i < writeRequestsPerMinute+1; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/habits", map[string]string{"name": "spam"})
		lastCode = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
