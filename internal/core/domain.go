package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryBills         Category = "bills"
	CategoryOther         Category = "other"
)

const (
	StatusDone    Status = "done"
	StatusMissed  Status = "missed"
	StatusSkipped Status = "skipped"
)

type (
	// Category is the fixed expense taxonomy.
	Category string

	// Status is the outcome recorded for a habit on a given day.
	Status string

	Expense struct {
		ID          string    `json:"id"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    Category  `json:"category"`
		OccurredAt  time.Time `json:"occurred_at"` // user-supplied, drives all aggregation
		CreatedAt   time.Time `json:"created_at"`  // informational only
	}

	Habit struct {
		ID          string       `json:"id"`
		Name        string       `json:"name"`
		Icon        string       `json:"icon,omitempty"`
		Color       string       `json:"color,omitempty"`
		CreatedAt   time.Time    `json:"created_at"`
		Completions []Completion `json:"completions"` // exclusively owned, cascade-deleted
	}

	Completion struct {
		Date   time.Time `json:"date"`
		Status Status    `json:"status"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 100 characters)")
	ErrZeroDate           = errors.New("date cannot be zero")
)

// categories lists the taxonomy in its fixed enumeration order. The order is
// the tie-break for equal totals in category breakdowns.
var categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryEntertainment,
	CategoryBills,
	CategoryOther,
}

// Categories returns the taxonomy in enumeration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory maps a stored tag to a Category. Unrecognized tags fall back
// to CategoryOther so old records survive schema drift.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryFood:
		return CategoryFood
	case CategoryTransport:
		return CategoryTransport
	case CategoryEntertainment:
		return CategoryEntertainment
	case CategoryBills:
		return CategoryBills
	case CategoryOther:
		return CategoryOther
	default:
		return CategoryOther
	}
}

// Rank returns the category's position in the enumeration order.
func (c Category) Rank() int {
	for i, cat := range categories {
		if cat == c {
			return i
		}
	}
	return len(categories)
}

// ParseStatus maps a stored tag to a Status, defaulting to StatusDone for
// unrecognized values. Aggregation assumes statuses are already valid.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusMissed:
		return StatusMissed
	case StatusSkipped:
		return StatusSkipped
	default:
		return StatusDone
	}
}

func (e Expense) Validate() error {
	if e.OccurredAt.IsZero() {
		return ErrZeroDate
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (h Habit) Validate() error {
	if len(strings.TrimSpace(h.Name)) == 0 {
		return ErrEmptyName
	}
	if len(h.Name) > 100 {
		return ErrNameTooLong
	}
	return nil
}
