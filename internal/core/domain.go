package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Money is an amount in integer cents. Sums and percentages are computed
	// on cents to avoid floating-point drift.
	Money struct {
		Cents int64
	}

	// Debt is one principal amount owed by one person. Debts are never
	// updated in place; a person rename rewrites the Person field only.
	Debt struct {
		ID        int64
		Person    string
		Label     string
		Amount    Money
		CreatedAt time.Time
	}

	// Payment is one repayment event. It is associated with a person by
	// exact string match, never with a specific debt.
	Payment struct {
		ID     int64
		Person string
		Amount Money
		PaidAt string // calendar date, YYYY-MM-DD
		Note   string
	}
)

var ErrEmptyPerson = errors.New("empty person")

// TrimPerson normalizes a person name for storage. Person names are
// case-sensitive and matched by string equality everywhere; only surrounding
// whitespace is stripped.
func TrimPerson(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeDate returns s when it is a valid YYYY-MM-DD calendar date,
// otherwise today's date. Malformed input is never an error.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s
	}
	return time.Now().Format("2006-01-02")
}

// MonthOf returns the YYYY-MM bucket of a YYYY-MM-DD date string.
func MonthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
