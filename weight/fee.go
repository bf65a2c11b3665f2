package weight

import (
	"errors"
	"math/big"
)

// RefTimePerSecond is the number of ref_time units in one second of execution
// (WEIGHT_REF_TIME_PER_SECOND).
const RefTimePerSecond uint64 = 1_000_000_000_000

var refTimePerSecond = new(big.Int).SetUint64(RefTimePerSecond)

// ErrInvalidFeeRate is returned when a fee-per-second rate is missing or negative.
var ErrInvalidFeeRate = errors.New("fee per second must be a non-negative integer")

// OverallWeight returns the XCM weight limit needed to execute instructionCount instructions, one
// of which dispatches a call costing transactCallWeight:
//
//	overall = transactCallWeight + perInstructionWeight * instructionCount
//
// computed per dimension.
func OverallWeight(transactCallWeight, perInstructionWeight Weight, instructionCount uint64) Weight {
	return transactCallWeight.Add(perInstructionWeight.Mul(instructionCount))
}

// FungibleFee returns the amount of the fee asset, in its smallest unit, required to buy budget on
// a chain charging feePerSecond per second of ref_time:
//
//	fee = floor(budget.ref_time * feePerSecond / RefTimePerSecond)
//
// The result is a lower bound. Callers should pad it with WithMargin.
func FungibleFee(budget Weight, feePerSecond *big.Int) (*big.Int, error) {
	if feePerSecond == nil || feePerSecond.Sign() < 0 {
		return nil, ErrInvalidFeeRate
	}

	fee := new(big.Int).Mul(budget.RefTime(), feePerSecond)

	return fee.Quo(fee, refTimePerSecond), nil
}

// WithMargin returns floor(amount * numerator / denominator). A 1.5x padding is WithMargin(a, 3, 2).
func WithMargin(amount *big.Int, numerator, denominator uint64) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	if denominator == 0 {
		denominator = 1
	}

	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(numerator))

	return out.Quo(out, new(big.Int).SetUint64(denominator))
}
