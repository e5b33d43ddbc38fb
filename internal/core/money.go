// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing goes through shopspring/decimal
// so that inputs like "12.345" round deterministically instead of picking up
// binary floating point error.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountCents bounds a single amount so per-user sums cannot overflow int64.
const maxAmountCents int64 = 100_000_000_000_000

// Exponent window accepted before any rescaling. Rescaling 1e20000000 to
// cents would build a 10^N big.Int.
const (
	minExponent = -10
	maxExponent = 15
)

var (
	hundred     = decimal.NewFromInt(100)
	maxAmount   = decimal.NewFromInt(maxAmountCents)
	minusAmount = maxAmount.Neg()
)

// ParseAmount converts a decimal string to non-negative cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero on the third decimal place. Zero is a valid amount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,34")  -> 1234
//	ParseAmount("12.345") -> 1235
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	m, err := ParseSignedAmount(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents < 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseSignedAmount is ParseAmount without the sign check. Callers that
// clamp negative input (goal savings) use it.
func ParseSignedAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxAmount) || cents.LessThan(minusAmount) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the amount in currency units for JSON responses.
// Use cents for calculations.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String formats the amount with thousands separators, e.g. "-1,234.50".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	rem := cents % 100
	b.WriteByte('.')
	b.WriteByte(byte('0' + rem/10))
	b.WriteByte(byte('0' + rem%10))
	return b.String()
}
