// Package core provides money parsing and handling utilities.
//
// This file contains the lenient amount parser used by the summary and the
// US-dollar display formatting for totals.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Decimal parses the amount. An empty amount is zero, like an empty number
// input. Anything else that is not a decimal number returns ErrInvalidAmount.
//
// Examples:
//
//	Amount("12.34").Decimal() -> 12.34, nil
//	Amount(" 7 ").Decimal()   -> 7, nil
//	Amount("").Decimal()      -> 0, nil
//	Amount("abc").Decimal()   -> 0, ErrInvalidAmount
func (a Amount) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, string(a))
	}
	return d, nil
}

// maxCents is the largest amount, in dollars, whose cents fit in an int64.
var maxCents = decimal.NewFromInt(math.MaxInt64).Shift(-2)

// Cents rounds d to two decimals and returns it in minor units. ok is false
// when the result does not fit in an int64.
func Cents(d decimal.Decimal) (cents int64, ok bool) {
	r := d.Round(2)
	if r.Abs().GreaterThan(maxCents) {
		return 0, false
	}
	return r.Shift(2).IntPart(), true
}

// FormatUSD formats d as US dollars with thousands separators and two
// decimals, e.g. "$1,234.50" or "-$20.00". A negative amount that rounds to
// zero keeps its sign: "-$0.00".
func FormatUSD(d decimal.Decimal) string {
	cents, ok := Cents(d)
	if !ok {
		return formatLargeUSD(d.Round(2))
	}
	s := money.New(cents, money.USD).Display()
	if cents == 0 && d.IsNegative() {
		s = "-" + s
	}
	return s
}

// formatLargeUSD groups the digits itself for amounts beyond int64 cents.
func formatLargeUSD(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + "." + frac
}
