package core

import (
	"testing"
	"time"
)

func TestDayOfSameCalendarDate(t *testing.T) {
	morning := time.Date(2026, 8, 31, 0, 1, 0, 0, time.UTC)
	night := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	if DayOf(morning) != DayOf(night) {
		t.Fatalf("same calendar date should normalize to the same day")
	}
	nextDay := time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC)
	if DayOf(morning) == DayOf(nextDay) {
		t.Fatalf("different calendar dates should differ")
	}
}

func TestDayOfUsesTimestampLocation(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*3600)
	// 23:00 on Aug 30 in UTC is already Aug 31 at UTC+10.
	ts := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC).In(zone)
	if got, want := DayOf(ts), NewDay(2026, 8, 31); got != want {
		t.Fatalf("DayOf = %s, want %s", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b Day
		want int
	}{
		{NewDay(2026, 8, 31), NewDay(2026, 8, 31), 0},
		{NewDay(2026, 8, 30), NewDay(2026, 8, 31), 1},
		{NewDay(2026, 8, 31), NewDay(2026, 8, 30), -1},
		{NewDay(2026, 2, 27), NewDay(2026, 3, 2), 3},
		{NewDay(2024, 2, 27), NewDay(2024, 3, 2), 4}, // leap year
		{NewDay(2025, 12, 31), NewDay(2026, 1, 1), 1},
		// Across the US spring-forward transition (Mar 8 2026): still
		// exactly one calendar day.
		{NewDay(2026, 3, 7), NewDay(2026, 3, 8), 1},
	}
	for _, tc := range cases {
		if got := DaysBetween(tc.a, tc.b); got != tc.want {
			t.Fatalf("DaysBetween(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestAddDays(t *testing.T) {
	d := NewDay(2026, 1, 31)
	if got, want := d.AddDays(1), NewDay(2026, 2, 1); got != want {
		t.Fatalf("AddDays(1) = %s, want %s", got, want)
	}
	if got, want := d.AddDays(-31), NewDay(2025, 12, 31); got != want {
		t.Fatalf("AddDays(-31) = %s, want %s", got, want)
	}
	if got := DaysBetween(d, d.AddDays(365)); got != 365 {
		t.Fatalf("round trip distance = %d, want 365", got)
	}
}

func TestMonthBounds(t *testing.T) {
	if got, want := LastOfMonth(2026, time.February), NewDay(2026, 2, 28); got != want {
		t.Fatalf("LastOfMonth(Feb 2026) = %s, want %s", got, want)
	}
	if got, want := LastOfMonth(2024, time.February), NewDay(2024, 2, 29); got != want {
		t.Fatalf("LastOfMonth(Feb 2024) = %s, want %s", got, want)
	}
	if got, want := LastOfMonth(2026, time.December), NewDay(2026, 12, 31); got != want {
		t.Fatalf("LastOfMonth(Dec 2026) = %s, want %s", got, want)
	}
	if !NewDay(2026, 8, 15).SameMonth(2026, time.August) {
		t.Fatalf("SameMonth should match")
	}
	if NewDay(2026, 9, 1).SameMonth(2026, time.August) {
		t.Fatalf("SameMonth should not match adjacent month")
	}
}

func TestDayJSON(t *testing.T) {
	d := NewDay(2026, 8, 31)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2026-08-31"` {
		t.Fatalf("marshal = %s", b)
	}
	var back Day
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Fatalf("round trip mismatch: %s != %s", back, d)
	}
}
