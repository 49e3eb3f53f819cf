package core

import "time"

// Day is a civil calendar day. It is anchored at midnight UTC of the civil
// date so values compare with == and work as map keys regardless of the
// time-of-day or zone of the timestamp they came from.
//
// Every date comparison in the aggregation code goes through Day. Raw
// timestamp subtraction is off limits: it miscounts across daylight-saving
// transitions.
type Day struct {
	t time.Time
}

// DayOf truncates a timestamp to its calendar day in the timestamp's own
// location. Two timestamps on the same local calendar date yield equal Days.
func DayOf(ts time.Time) Day {
	y, m, d := ts.Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// NewDay builds a Day from explicit calendar components.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the calendar day containing the reference instant. Callers
// capture one reference instant per aggregation pass so a midnight rollover
// mid-computation cannot split results across two days.
func Today(now time.Time) Day {
	return DayOf(now)
}

// AddDays returns the day n calendar days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// DaysBetween returns the signed whole number of calendar days from a to b.
// DaysBetween(a, a) == 0. The anchors are UTC midnights, so the division is
// exact and unaffected by daylight-saving time.
func DaysBetween(a, b Day) int {
	return int(b.t.Sub(a.t) / (24 * time.Hour))
}

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool  { return d.t.After(o.t) }
func (d Day) IsZero() bool      { return d.t.IsZero() }

// Date returns the calendar components.
func (d Day) Date() (year int, month time.Month, day int) {
	return d.t.Date()
}

// Time returns the UTC midnight anchoring the day, useful when a full
// timestamp is required at a storage or transport boundary.
func (d Day) Time() time.Time {
	return d.t
}

// Year and Month identify the calendar month containing d.
func (d Day) Year() int         { return d.t.Year() }
func (d Day) Month() time.Month { return d.t.Month() }

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return d.t.Format("2006-01-02")
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// MarshalJSON encodes the day as a "YYYY-MM-DD" string for direct UI
// binding.
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Day) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	day, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = day
	return nil
}

// FirstOfMonth returns the first day of the given calendar month.
func FirstOfMonth(year int, month time.Month) Day {
	return NewDay(year, month, 1)
}

// LastOfMonth returns the last day of the given calendar month.
func LastOfMonth(year int, month time.Month) Day {
	return NewDay(year, month+1, 1).AddDays(-1)
}

// SameMonth reports whether the day falls in the given calendar year+month.
func (d Day) SameMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}
