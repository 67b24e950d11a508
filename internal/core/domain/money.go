package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/arledger/arledger/internal/apperrors"
)

// minorUnitPlaces is the ledger's fixed decimal precision (cents).
const minorUnitPlaces = 2

// Amount is a monetary value in integer minor currency units (e.g. cents).
// Positive amounts are debits, negative amounts are credits. All ledger
// arithmetic happens on Amount; decimal.Decimal appears only at the boundary
// (parsing, formatting) and in interest rate math.
type Amount int64

// ParseAmount parses a decimal string ("123.45") into minor units.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, apperrors.NewValidationError("amount", fmt.Sprintf("not a decimal number: %q", s))
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts a decimal value into minor units. Values with
// more than two decimal places are rejected rather than silently rounded.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	shifted := d.Shift(minorUnitPlaces)
	if !shifted.IsInteger() {
		return 0, apperrors.NewValidationError("amount", fmt.Sprintf("more than %d decimal places: %s", minorUnitPlaces, d.String()))
	}
	if !shifted.BigInt().IsInt64() {
		return 0, apperrors.NewValidationError("amount", fmt.Sprintf("out of range: %s", d.String()))
	}
	return Amount(shifted.IntPart()), nil
}

// Decimal returns the amount as an exact decimal in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -minorUnitPlaces)
}

// String formats the amount with two decimal places, e.g. "-12.30".
func (a Amount) String() string {
	return a.Decimal().StringFixed(minorUnitPlaces)
}

func (a Amount) Neg() Amount { return -a }

func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

func (a Amount) IsZero() bool     { return a == 0 }
func (a Amount) IsPositive() bool { return a > 0 }
func (a Amount) IsNegative() bool { return a < 0 }

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a < b {
		return a
	}
	return b
}
