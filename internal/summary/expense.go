// Package summary computes monthly expense aggregates: totals, category
// breakdowns, daily averages and dense daily time series.
//
// Every function is a pure, total computation over a snapshot of the expense
// collection. The reference day is an explicit parameter so callers capture
// one "now" per pass and tests can pin it.
package summary

import (
	"sort"
	"time"

	"tally/internal/core"
)

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category core.Category `json:"category"`
	Cents    int64         `json:"total_cents"`
}

// Total returns the row's amount as Money.
func (c CategoryTotal) Total() core.Money {
	return core.Money{Cents: c.Cents}
}

// DayTotal is one point of a dense daily spending series.
type DayTotal struct {
	Day   core.Day `json:"day"`
	Cents int64    `json:"total_cents"`
}

// MonthlyTotal sums the amounts of all expenses whose calendar day falls in
// the given year+month. Empty input yields zero.
func MonthlyTotal(expenses []core.Expense, year int, month time.Month) core.Money {
	var cents int64
	for _, e := range expenses {
		if core.DayOf(e.OccurredAt).SameMonth(year, month) {
			cents += e.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// MonthlyCount returns how many expenses fall in the given month.
func MonthlyCount(expenses []core.Expense, year int, month time.Month) int {
	n := 0
	for _, e := range expenses {
		if core.DayOf(e.OccurredAt).SameMonth(year, month) {
			n++
		}
	}
	return n
}

// CategoryBreakdown groups the month's expenses by category and sums their
// amounts. The result is sorted descending by total; equal totals keep the
// fixed category enumeration order. Categories with no expenses are omitted.
func CategoryBreakdown(expenses []core.Expense, year int, month time.Month) []CategoryTotal {
	totals := make(map[core.Category]int64)
	for _, e := range expenses {
		if core.DayOf(e.OccurredAt).SameMonth(year, month) {
			totals[e.Category] += e.Amount.Cents
		}
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, cat := range core.Categories() {
		cents, ok := totals[cat]
		if !ok {
			continue
		}
		out = append(out, CategoryTotal{Category: cat, Cents: cents})
	}
	// The slice starts in enumeration order, so a stable sort on totals
	// alone preserves it as the tie-break.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cents > out[j].Cents
	})
	return out
}

// DailyAverage divides the monthly total by the number of elapsed days in
// the month: the 1st through min(today, last day of month), inclusive, never
// fewer than one. On the 1st the divisor is 1; for a fully past month it is
// the month's length. Cents are rounded half up.
func DailyAverage(expenses []core.Expense, year int, month time.Month, today core.Day) core.Money {
	total := MonthlyTotal(expenses, year, month)

	first := core.FirstOfMonth(year, month)
	last := core.LastOfMonth(year, month)
	end := today
	if last.Before(end) {
		end = last
	}
	elapsed := core.DaysBetween(first, end) + 1
	if elapsed < 1 {
		elapsed = 1
	}

	d := int64(elapsed)
	return core.Money{Cents: (total.Cents + d/2) / d}
}

// DailySpending builds the dense daily series for the daysBack+1 days ending
// at today, oldest first. Days without expenses appear with a zero total, so
// charting never has to handle missing x-axis points.
func DailySpending(expenses []core.Expense, daysBack int, today core.Day) []DayTotal {
	if daysBack < 0 {
		daysBack = 0
	}
	start := today.AddDays(-daysBack)

	byDay := make(map[core.Day]int64)
	for _, e := range expenses {
		day := core.DayOf(e.OccurredAt)
		if day.Before(start) || day.After(today) {
			continue
		}
		byDay[day] += e.Amount.Cents
	}

	out := make([]DayTotal, 0, daysBack+1)
	for d := start; !d.After(today); d = d.AddDays(1) {
		out = append(out, DayTotal{Day: d, Cents: byDay[d]})
	}
	return out
}
