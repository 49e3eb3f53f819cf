// Package core holds the domain types shared by the expense and habit
// tracking engines: money amounts in cents, the category and status
// taxonomies, and the calendar-day primitive every aggregation routes
// through.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is a positive amount in currency minor units.
type Money struct {
	Cents int64 `json:"cents"`
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Float returns the major-unit value for display purposes only. Use cents
// for calculations.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// ParseAmount converts a decimal string to Money with half-up rounding on
// the third decimal place. Both dot (12.34) and comma (12,34) separators are
// accepted. Non-positive or malformed input is rejected here, at the
// boundary, so aggregation can sum stored amounts unconditionally.
//
// Examples:
//
//	ParseAmount("12.34") -> 1234 cents
//	ParseAmount("12,34") -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents (rounds up)
func ParseAmount(s string) (Money, error) {
	s = normalizeAmount(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Cents: cents.IntPart()}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

func normalizeAmount(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ' ', '\t':
			// trim whitespace anywhere, users paste amounts
		case ',':
			out = append(out, '.')
		case '+', '-':
			// explicit signs are rejected, only bare positives allowed
			return ""
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
