// Package streak computes consecutive-day streaks and dense completion
// series for a single habit's completion history.
//
// All functions are pure and total: any well-formed completion slice,
// including an empty one, yields a result and never an error. Only
// StatusDone entries count; completions on the same calendar day are
// deduplicated everywhere, so marking a day twice can never inflate a streak
// or a count.
package streak

import (
	"sort"
	"time"

	"tally/internal/core"
)

// DayCount is one point of a dense weekly completion series.
type DayCount struct {
	Day   core.Day `json:"day"`
	Count int      `json:"count"`
}

// DayDone is one point of a dense monthly completion grid.
type DayDone struct {
	Day  core.Day `json:"day"`
	Done bool     `json:"done"`
}

// doneDays returns the distinct calendar days with a done completion.
func doneDays(completions []core.Completion) map[core.Day]struct{} {
	days := make(map[core.Day]struct{})
	for _, c := range completions {
		if c.Status != core.StatusDone {
			continue
		}
		days[core.DayOf(c.Date)] = struct{}{}
	}
	return days
}

// Calculate returns the current and longest consecutive-day streaks.
//
// The current streak counts backward from the most recent done day while
// each step is exactly one day earlier, and is valid only when that most
// recent day is today or yesterday: an unmarked today does not break a
// streak, a gap before yesterday does. The longest streak is the maximum
// run of consecutive days anywhere in the history.
func Calculate(completions []core.Completion, today core.Day) (current, longest int) {
	set := doneDays(completions)
	if len(set) == 0 {
		return 0, 0
	}

	// Unique days, most recent first.
	days := make([]core.Day, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[j].Before(days[i]) })

	run := 1
	for i := 1; i < len(days); i++ {
		if core.DaysBetween(days[i], days[i-1]) == 1 {
			run++
		} else {
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}

	if core.DaysBetween(days[0], today) <= 1 {
		current = 1
		for i := 1; i < len(days); i++ {
			if core.DaysBetween(days[i], days[i-1]) != 1 {
				break
			}
			current++
		}
	}

	return current, longest
}

// WeeklyCompletions builds the dense daily series for the weeksBack*7+1 days
// ending at today, oldest first. Each point counts the distinct done days
// matching it, so the count is 0 or 1 per habit regardless of duplicate
// entries.
func WeeklyCompletions(completions []core.Completion, weeksBack int, today core.Day) []DayCount {
	if weeksBack < 1 {
		weeksBack = 1
	}
	set := doneDays(completions)

	n := weeksBack * 7
	out := make([]DayCount, 0, n+1)
	for d := today.AddDays(-n); !d.After(today); d = d.AddDays(1) {
		count := 0
		if _, ok := set[d]; ok {
			count = 1
		}
		out = append(out, DayCount{Day: d, Count: count})
	}
	return out
}

// MonthlyCompletionRate builds the dense boolean grid for the
// monthsBack*30+1 days ending at today, oldest first. Months are
// approximated as 30 days; the grid is a trailing window, not a calendar
// month.
func MonthlyCompletionRate(completions []core.Completion, monthsBack int, today core.Day) []DayDone {
	if monthsBack < 1 {
		monthsBack = 1
	}
	set := doneDays(completions)

	n := monthsBack * 30
	out := make([]DayDone, 0, n+1)
	for d := today.AddDays(-n); !d.After(today); d = d.AddDays(1) {
		_, done := set[d]
		out = append(out, DayDone{Day: d, Done: done})
	}
	return out
}

// TotalDone counts the distinct calendar days with a done completion.
func TotalDone(completions []core.Completion) int {
	return len(doneDays(completions))
}

// Rate returns the habit's completion percentage: distinct done days over
// days elapsed since creation, at least one. The creation day itself is
// not part of the divisor, so a fresh habit can read above 100.
func Rate(completions []core.Completion, createdAt time.Time, today core.Day) float64 {
	days := core.DaysBetween(core.DayOf(createdAt), today)
	if days < 1 {
		days = 1
	}
	return float64(TotalDone(completions)) / float64(days) * 100.0
}

// CompletedOn reports whether the habit has a done completion on the given
// day.
func CompletedOn(completions []core.Completion, day core.Day) bool {
	for _, c := range completions {
		if c.Status == core.StatusDone && core.DayOf(c.Date) == day {
			return true
		}
	}
	return false
}
