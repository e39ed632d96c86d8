// Package core holds the domain model and the pure aggregation layer.
//
// This file contains money parsing and handling. Amounts are stored as
// integer cents to keep sums exact; JSON exposes them as decimal numbers
// with two fraction digits.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is a non-negative monetary magnitude in cents.
type Money struct {
	Cents int64
}

// Float64 returns the amount in major units (euros, dollars, ...).
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100
}

// String renders the amount as a plain decimal, e.g. "12.34".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + pad2(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third fraction digit.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// allowed; negative values are not, since transaction amounts carry their
// sign in the type field.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
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
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	major, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	var minor int64
	switch {
	case len(fracPart) == 0:
		minor = 0
	case len(fracPart) == 1:
		minor, _ = strconv.ParseInt(fracPart, 10, 64)
		minor *= 10
	default:
		minor, _ = strconv.ParseInt(fracPart[:2], 10, 64)
		// Half-up rounding on the third digit.
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			minor++
		}
	}

	return major*100 + minor, nil
}
