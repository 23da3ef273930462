// Package core holds the ledger domain: documents, records, typed errors and
// the pure rules (parsing, aggregation, month ranges) the services build on.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts follow the stored column: ten significant digits, two of them
// after the point. Finer input is accepted up to maxFractionDigits and rounded.
const (
	maxIntegerDigits  = 8
	maxFractionDigits = 12
)

// ErrAmountOutOfRange rejects amounts with more integer or fraction digits
// than a stored amount can hold.
var ErrAmountOutOfRange = fmt.Errorf("%w: out of range", ErrInvalidAmount)

// ParseAmount parses a user-entered currency value.
//
// Surrounding whitespace is ignored and a single decimal comma is accepted in
// place of a dot ("12,50"). The sign is preserved; callers decide which ranges
// they accept.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrMissingAmount
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !withinRange(d) {
		return decimal.Zero, ErrAmountOutOfRange
	}
	return d, nil
}

// withinRange inspects coefficient and exponent only, so values like "1e300000"
// are rejected without being expanded.
func withinRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < -maxFractionDigits || exp > maxIntegerDigits {
		return false
	}
	coef := d.Coefficient()
	if coef.Sign() == 0 {
		return true
	}
	digits := int64(len(coef.Abs(coef).String()))
	return digits+exp <= maxIntegerDigits
}

// ParseNonNegativeAmount accepts zero and positive values, rounded to cents.
func ParseNonNegativeAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return d, err
	}
	d = RoundCents(d)
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// ParsePositiveAmount accepts values that stay above zero once rounded to
// cents.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return d, err
	}
	d = RoundCents(d)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundCents rounds to the two decimal places expense records are stored with.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
