package planner

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SatoshiExp is the number of decimal places in one bitcoin.
const SatoshiExp = 8

var satsPerCoin = decimal.New(1, SatoshiExp)

// ParseAmount parses a coin amount such as "0.0001". Amounts with more than
// eight decimal places are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	if _, err := ToSatoshis(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ToSatoshis converts a coin amount to satoshis without rounding.
func ToSatoshis(amount decimal.Decimal) (int64, error) {
	sats := amount.Mul(satsPerCoin)
	if !sats.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrFractionalSatoshi, amount.String())
	}
	if !sats.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount.String())
	}
	return sats.IntPart(), nil
}

// FromSatoshis converts satoshis to a coin amount.
func FromSatoshis(sats int64) decimal.Decimal {
	return decimal.New(sats, -SatoshiExp)
}

// FormatAmount renders an amount with exactly eight decimal places, the way
// the node prints them.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(SatoshiExp)
}
