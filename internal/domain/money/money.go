// Package money converts between the decimal amounts exchanged on the wire
// and the minor-unit (cent) integers stored in the ledger.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrTooPrecise  = errors.New("amount has more than two decimal places")
	ErrOutOfRange  = errors.New("amount does not fit in minor units")
	ErrNotPositive = errors.New("amount must be positive")
)

// ToMinorUnits converts a decimal major-unit amount (e.g. "40.25") into minor
// units (4025). Amounts with sub-cent precision are rejected.
func ToMinorUnits(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, ErrTooPrecise
	}
	if !shifted.BigInt().IsInt64() {
		return 0, ErrOutOfRange
	}
	return shifted.IntPart(), nil
}

// PositiveMinorUnits is ToMinorUnits with the positivity check transaction
// amounts require.
func PositiveMinorUnits(d decimal.Decimal) (int64, error) {
	minor, err := ToMinorUnits(d)
	if err != nil {
		return 0, err
	}
	if minor <= 0 {
		return 0, ErrNotPositive
	}
	return minor, nil
}

// FromMinorUnits converts minor units back to a decimal major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-2)
}
