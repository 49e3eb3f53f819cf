package http

import (
	"net/http"
	"time"

	"tally/internal/core"
)

type createHabitRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type toggleRequest struct {
	Date string `json:"date"`
}

type toggleResponse struct {
	HabitID string   `json:"habit_id"`
	Day     core.Day `json:"day"`
	Done    bool     `json:"done"`
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.habits.Add(r.Context(), core.Habit{
		Name:      req.Name,
		Icon:      req.Icon,
		Color:     req.Color,
		CreatedAt: time.Now(),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.flushCaches()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.habits.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.habits.Remove(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	s.flushCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleHabit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// The body is optional, an empty one toggles today.
	var req toggleRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	day, err := parseDayParam(req.Date, core.Today(time.Now()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	done, err := s.habits.Toggle(r.Context(), id, day)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.flushCaches()
	writeJSON(w, http.StatusOK, toggleResponse{HabitID: id, Day: day, Done: done})
}

func (s *Server) handleHabitStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	today := core.Today(time.Now())

	key := "stats-" + id + "-" + today.String()
	if cached, ok := s.statsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	stats, err := s.habits.Stats(r.Context(), id, today)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.statsCache.Set(key, stats)
	writeJSON(w, http.StatusOK, stats)
}
