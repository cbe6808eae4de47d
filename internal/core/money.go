// Package core provides the domain model for the personal-finance service.
//
// This file contains functions for parsing monetary amounts from free-form
// user input and converting between cents and display representations.
package core

import (
	"strconv"
	"strings"
)

// ParseAmountToCents converts a free-form amount string to cents.
//
// Mobile clients submit amounts with currency symbols, thousands separators
// and stray characters ("S/. 1,250.50"). Every rune that is not a digit or a
// decimal dot is stripped before parsing, then the remainder is converted to
// cents with half-up rounding on the third decimal place.
//
// Examples:
//
//	ParseAmountToCents("12.34")            -> 1234, nil
//	ParseAmountToCents("S/. 1,250.50abc")  -> 125050, nil
//	ParseAmountToCents("12.345")           -> 1234, nil (rounds down)
//	ParseAmountToCents("12.346")           -> 1235, nil (rounds up)
//	ParseAmountToCents("abc")              -> 0, ErrInvalidAmount
//	ParseAmountToCents("-5")               -> 0, ErrInvalidAmount
func ParseAmountToCents(s string) (int64, error) {
	// A minus sign anywhere is rejected outright. Amounts are unsigned; the
	// kind carries the sign. Stripping it would silently turn a negative
	// input into a positive amount.
	if strings.Contains(s, "-") {
		return 0, ErrInvalidAmount
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// Take the first two fractional digits; half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Units returns the whole-currency value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}
