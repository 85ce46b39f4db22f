// Package core provides the ledger domain types and money handling.
//
// This file contains functions for parsing monetary amounts from strings
// and formatting cents for display.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountCents converts a decimal string to cents with half-up rounding
// on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Parsing
// is deliberately lenient: malformed, empty, or negative input yields 0
// rather than an error, so a bad form field silently records nothing instead
// of rejecting the request.
//
// Examples:
//
//	ParseAmountCents("12.34")  -> 1234
//	ParseAmountCents("12,345") -> 1234 (rounds down)
//	ParseAmountCents("-5")     -> 0
//	ParseAmountCents("abc")    -> 0
func ParseAmountCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if strings.HasPrefix(s, "-") {
		// Negative amounts clamp to zero at the mutation boundary.
		return 0
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents
}

// Clamp returns m with negative cents coerced to zero.
func (m Money) Clamp() Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}

// Add returns the sum of two amounts.
func (m Money) Add(n Money) Money {
	return Money{Cents: m.Cents + n.Cents}
}

// Sub returns m minus n; the result may be negative.
func (m Money) Sub(n Money) Money {
	return Money{Cents: m.Cents - n.Cents}
}

// String formats the amount as a plain decimal, e.g. "1234.50".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// RoundPercent returns round(part/whole*100) on cents, clamped to [0,100].
// A zero whole yields 0, never a division error.
func RoundPercent(part, whole Money) int {
	if whole.Cents <= 0 {
		return 0
	}
	p := int((part.Cents*100 + whole.Cents/2) / whole.Cents)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
