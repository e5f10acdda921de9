package models

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// Bounds for amounts and limits. Every value inside them is exactly
// representable as a BSON Decimal128 (34 significant digits) and as a short
// string, so all backends accept and render the same set of values.
const (
	MaxMoneyIntegerDigits  = 18
	MaxMoneyFractionDigits = 16
)

var (
	ErrNegativeMoney  = errors.New("must not be negative")
	ErrMoneyTooLarge  = errors.New("must be less than 10^18")
	ErrMoneyPrecision = errors.New("must have at most 16 decimal places")
)

var ten = big.NewInt(10)

// maxCoefficientBits caps the digits examined before trailing zeros are
// stripped (about 77 decimal digits).
const maxCoefficientBits = 256

// CheckMoney reports whether d is a storable, non-negative amount.
// It inspects the coefficient and exponent only, so a huge exponent costs
// nothing to reject.
func CheckMoney(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeMoney
	}
	if d.IsZero() {
		return nil
	}

	coef := new(big.Int).Set(d.Coefficient())
	exp := int64(d.Exponent())
	if coef.BitLen() > maxCoefficientBits {
		if exp < 0 {
			return ErrMoneyPrecision
		}
		return ErrMoneyTooLarge
	}
	// Strip trailing zeros so 1.500 and 1.5 are judged alike.
	mod := new(big.Int)
	for {
		q, r := new(big.Int).QuoRem(coef, ten, mod)
		if r.Sign() != 0 {
			break
		}
		coef, exp = q, exp+1
	}

	digits := int64(len(coef.String()))
	if digits+exp > MaxMoneyIntegerDigits {
		return ErrMoneyTooLarge
	}
	if -exp > MaxMoneyFractionDigits {
		return ErrMoneyPrecision
	}
	return nil
}
