// Package core provides the Flowly domain model: transactions, recurring
// rules, pending writes and the parsing/validation rules shared by every
// other component.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds to two decimal places half-up. Returns an error for invalid
// formats, negative values, or zero amounts.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	f, _ := d.Float64()
	return f, nil
}

// AmountOrZero is the total variant used by the metrics engine: unparsable
// or non-positive input contributes 0 instead of an error.
func AmountOrZero(s string) float64 {
	f, err := ParseAmount(s)
	if err != nil {
		return 0
	}
	return f
}
