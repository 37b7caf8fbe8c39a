// Package money provides the fixed-point amount type used for every currency
// value in the ledger. Amounts are counted in minor units (paise, cents) so that
// sums never drift; shopspring/decimal is used only at the edges, for parsing,
// formatting and ratio arithmetic.
package money

import (
	"bytes"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an Amount.
const Scale = 2

// ErrInvalidAmount is returned when a string cannot be read as a non-negative amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a currency value in minor units.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// FromMinor builds an Amount from a count of minor units.
func FromMinor(units int64) Amount {
	return Amount(units)
}

// FromDecimal converts a decimal value, rounding half away from zero to two places.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Round(Scale).Shift(Scale).IntPart())
}

// Parse reads a non-negative amount such as "12", "12.5", "12.50" or "12,50".
// More than two fractional digits are rounded half-up.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return FromDecimal(d), nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic("money: " + err.Error() + ": " + s)
	}
	return a
}

// Minor returns the amount in minor units.
func (a Amount) Minor() int64 {
	return int64(a)
}

// Decimal returns the amount as an exact decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. The raw text is
// parsed as a decimal so the value never passes through float64.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	parsed, err := Parse(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
