package amm

import (
	dec "fenrir/internal/decimal"
)

// SlippageGuard rejects a quoted swap whose realized output drifts too far
// from the caller's minimum acceptable output. Grounded on
// original_source/backend/orderbook/src/market_maker/slippage.rs.
type SlippageGuard struct {
	DefaultTolerance dec.D
}

// NewSlippageGuard builds a guard with the given default tolerance (a
// fraction, e.g. 0.01 for 1%).
func NewSlippageGuard(defaultTolerance dec.D) SlippageGuard {
	return SlippageGuard{DefaultTolerance: defaultTolerance}
}

// CheckSlippage computes s = (actualOutput - minOutput) / actualOutput and
// rejects if s exceeds tolerance.
//
// Because the denominator is actualOutput rather than minOutput, a fill far
// above the minimum drives s toward 1 and trips the guard, while a fill
// below the minimum drives s negative and never does (spec.md §9 open
// question 2, kept as-is: "actual far above minimum" is the failure case,
// not "actual below minimum").
func (g SlippageGuard) CheckSlippage(actualOutput, minOutput, tolerance dec.D) error {
	if actualOutput.IsZero() {
		return ErrInvalidPoolParameters
	}

	s := actualOutput.Sub(minOutput).Div(actualOutput)
	if s.GreaterThan(tolerance) {
		return ErrSlippageExceeded
	}
	return nil
}

// CheckSlippageDefault runs CheckSlippage using the guard's DefaultTolerance.
func (g SlippageGuard) CheckSlippageDefault(actualOutput, minOutput dec.D) error {
	return g.CheckSlippage(actualOutput, minOutput, g.DefaultTolerance)
}
