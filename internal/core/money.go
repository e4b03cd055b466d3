// Package core holds the budget domain model shared by the ledger engine,
// the storage codec and the repair passes.
//
// This file contains the fixed-precision money type. Amounts are carried as
// exact decimals and only ever rounded to cents at aggregate boundaries.
package core

import (
	"bytes"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// CentPlaces is the number of fractional digits of a canonical amount.
const CentPlaces = 2

// Money is a signed decimal currency amount.
// The zero value is 0.00 and ready to use.
type Money struct {
	d decimal.Decimal
}

// Zero is 0.00.
var Zero = Money{}

// NewMoney converts a float to Money using its shortest decimal representation.
// The result is not rounded: 19.999999999998 stays 19.999999999998.
func NewMoney(f float64) Money {
	return Money{d: decimal.NewFromFloat(f)}
}

// Cents builds an exact amount from integer cents.
func Cents(c int64) Money {
	return Money{d: decimal.New(c, -CentPlaces)}
}

// ParseMoney parses a decimal string such as "12.34" or "-0.5".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{d: d}, nil
}

// Round2 rounds a float to the nearest cent, half away from zero.
func Round2(f float64) Money {
	return NewMoney(f).Round2()
}

// Round2 rounds to the nearest cent, half away from zero.
//
// Examples:
//
//	1.005  -> 1.01
//	-1.005 -> -1.01
//	2.345  -> 2.35
func (m Money) Round2() Money {
	return Money{d: m.d.Round(CentPlaces)}
}

// Add returns m + o without rounding.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m - o without rounding.
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Sum adds every amount exactly. Callers round the aggregate once.
func Sum(ms ...Money) Money {
	total := decimal.Zero
	for _, m := range ms {
		total = total.Add(m.d)
	}
	return Money{d: total}
}

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// Equal compares numerically, so 1.5 equals 1.50.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// NeedsPrecisionFix reports whether m carries digits beyond the cent.
func (m Money) NeedsPrecisionFix() bool {
	return !m.d.Equal(m.d.Round(CentPlaces))
}

// Float64 returns the nearest float, for display and float-based stores.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String formats canonical amounts with two decimals and drifting ones in full.
func (m Money) String() string {
	if m.NeedsPrecisionFix() {
		return m.d.String()
	}
	return m.d.StringFixed(CentPlaces)
}

// MarshalJSON writes a bare JSON number. Drifting values are written verbatim
// so that a read-modify-write cycle never hides them.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*m = Zero
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	m.d = d
	return nil
}

// NeedsPrecisionFix reports whether a raw stored float is not a whole number
// of cents. The shortest decimal form of f is compared exactly, so a value
// such as 19.999999999998 is flagged; plain float noise on a cent value
// (0.1+0.2) is flagged as well because it is stored that way. The check
// is exact with no float tolerance, since the drift in 19.999999999998
// is only 2e-12.
func NeedsPrecisionFix(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return true
	}
	return NewMoney(f).NeedsPrecisionFix()
}
