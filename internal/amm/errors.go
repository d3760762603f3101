package amm

import "errors"

// Error taxonomy for the AMM engines (spec.md §4.8).
var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrPriceImpactTooHigh    = errors.New("price impact too high")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrInvalidPoolParameters = errors.New("invalid pool parameters")
)
