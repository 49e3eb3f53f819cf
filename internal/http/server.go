package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/cache"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/summary"
)

// Options tune the read-side caches and snapshot listing.
type Options struct {
	CacheSize     int
	CacheTTL      time.Duration
	SnapshotLimit int
}

func defaultOptions() Options {
	return Options{
		CacheSize:     64,
		CacheTTL:      30 * time.Second,
		SnapshotLimit: 100,
	}
}

// Server exposes the JSON API over an embedded http.Server. Month
// summaries, daily series and habit stats are cached; every write
// flushes the caches so reads never serve stale aggregates.
type Server struct {
	http.Server

	expenses *services.ExpenseService
	habits   *services.HabitService
	logger   *applog.Logger
	opts     Options

	summaryCache *cache.Cache[*services.MonthlySummary]
	dailyCache   *cache.Cache[[]summary.DayTotal]
	statsCache   *cache.Cache[*services.HabitStats]
	janitor      *cache.Janitor

	limiter      *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, expenses *services.ExpenseService, habits *services.HabitService, logger *applog.Logger, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultOptions().CacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultOptions().CacheTTL
	}
	if opts.SnapshotLimit <= 0 {
		opts.SnapshotLimit = defaultOptions().SnapshotLimit
	}

	s := &Server{
		expenses:     expenses,
		habits:       habits,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		opts:         opts,
		summaryCache: cache.New[*services.MonthlySummary](opts.CacheSize, opts.CacheTTL),
		dailyCache:   cache.New[[]summary.DayTotal](opts.CacheSize, opts.CacheTTL),
		statsCache:   cache.New[*services.HabitStats](opts.CacheSize, opts.CacheTTL),
		limiter:      newRateLimiter(),
	}
	s.janitor = cache.NewJanitor(s.summaryCache, s.dailyCache, s.statsCache)
	s.janitor.Start(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/expenses", s.withLimiter(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withLimiter(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/summary/daily", s.handleDailySpending)
	mux.HandleFunc("GET /api/snapshots", s.handleSnapshots)

	mux.HandleFunc("POST /api/habits", s.withLimiter(s.handleCreateHabit))
	mux.HandleFunc("GET /api/habits", s.handleListHabits)
	mux.HandleFunc("DELETE /api/habits/{id}", s.withLimiter(s.handleDeleteHabit))
	mux.HandleFunc("POST /api/habits/{id}/toggle", s.withLimiter(s.handleToggleHabit))
	mux.HandleFunc("GET /api/habits/{id}/stats", s.handleHabitStats)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.Middleware(logger)(withSecurityHeaders(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// flushCaches drops all cached aggregates. Called after every write.
func (s *Server) flushCaches() {
	s.summaryCache.Flush()
	s.dailyCache.Flush()
	s.statsCache.Flush()
}

// Shutdown stops the background cleanup loops and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
