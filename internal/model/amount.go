package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	maxAmount = decimal.RequireFromString("170141183460469231731687303715884105727")
	minAmount = decimal.RequireFromString("-170141183460469231731687303715884105728")
)

// ValidateAmount checks that a is a whole number inside the signed 128-bit range.
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsInteger() {
		return fmt.Errorf("%w: amount %s is not a whole number", ErrInvalidArgument, a)
	}
	if a.GreaterThan(maxAmount) || a.LessThan(minAmount) {
		return fmt.Errorf("%w: amount %s out of range", ErrInvalidArgument, a)
	}
	return nil
}

// ValidatePositiveAmount is ValidateAmount plus a > 0.
func ValidatePositiveAmount(a decimal.Decimal) error {
	if err := ValidateAmount(a); err != nil {
		return err
	}
	if !a.IsPositive() {
		return fmt.Errorf("%w: amount %s must be positive", ErrInvalidArgument, a)
	}
	return nil
}
