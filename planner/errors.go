package planner

import "errors"

var (
	// ErrInvalidAmount indicates an amount string could not be parsed as a decimal.
	ErrInvalidAmount = errors.New("planner: invalid amount")

	// ErrFractionalSatoshi indicates an amount carries more than 8 decimal places.
	ErrFractionalSatoshi = errors.New("planner: amount is not a whole number of satoshis")

	// ErrAmountOutOfRange indicates an amount does not fit in an int64 satoshi value.
	ErrAmountOutOfRange = errors.New("planner: amount out of range")
)
