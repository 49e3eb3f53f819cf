package http

import (
	"fmt"
	"net/http"
	"time"

	"tally/internal/core"
)

type createExpenseRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	now := time.Now()
	day, err := parseDayParam(req.Date, core.Today(now))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	created, err := s.expenses.Add(r.Context(), core.Expense{
		Amount:      amount,
		Description: req.Description,
		Category:    core.ParseCategory(req.Category),
		OccurredAt:  day.Time(),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.flushCaches()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	today := core.Today(time.Now())
	year, month, err := parseYearMonth(r, today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := s.expenses.ListMonth(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.expenses.Remove(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	s.flushCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	today := core.Today(time.Now())
	year, month, err := parseYearMonth(r, today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%04d-%02d", year, int(month))
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	sum, err := s.expenses.Summarize(r.Context(), year, month, today)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.summaryCache.Set(key, sum)
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleDailySpending(w http.ResponseWriter, r *http.Request) {
	today := core.Today(time.Now())

	daysBack, err := parsePositiveInt(r, "days", 6)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("daily-%s-%d", today, daysBack)
	if cached, ok := s.dailyCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	days, err := s.expenses.DailySpending(r.Context(), daysBack, today)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.dailyCache.Set(key, days)
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r, "limit", s.opts.SnapshotLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snaps, err := s.expenses.Snapshots(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}
