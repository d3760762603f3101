// Package decimal centralizes the fixed-point arithmetic and opaque
// identifiers shared by the order book and AMM engines. Nothing in
// matching or pricing touches a float.
package decimal

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// D is the decimal type used throughout the engines, re-exported so callers
// don't need a second import for the same concept.
type D = decimal.Decimal

var (
	Zero  = decimal.Zero
	One   = decimal.NewFromInt(1)
	Two   = decimal.NewFromInt(2)
	Half  = decimal.New(5, -1)
	Tenth = decimal.New(1, -1)
)

// SqrtConfig bounds the Newton iteration used by the price-impact
// calculator's depth factor.
type SqrtConfig struct {
	MaxIters int
	Epsilon  D
}

// DefaultSqrtConfig matches the source's hard-coded iteration bound: give up
// after 20 iterations, or once successive guesses agree to 10 decimal places.
func DefaultSqrtConfig() SqrtConfig {
	return SqrtConfig{
		MaxIters: 20,
		Epsilon:  decimal.New(1, -10),
	}
}

// Sqrt computes a square root by Newton's method, starting at x0 = value/2.
// sqrt(0) is 0 by definition; negative inputs are not valid square root
// arguments anywhere they're used in this module and are returned as zero
// rather than panicking, since callers never pass them deliberately.
func Sqrt(value D, cfg SqrtConfig) D {
	if value.IsZero() || value.IsNegative() {
		return Zero
	}

	x := value.Div(Two)
	for i := 0; i < cfg.MaxIters; i++ {
		x0 := x
		x = x.Add(value.Div(x)).Div(Two)
		if x.Sub(x0).Abs().LessThan(cfg.Epsilon) {
			break
		}
	}

	return x.RoundBank(8)
}

// GenerateID returns a uniform-random 128-bit identifier. Centralized here
// so the order book, AMM, and wire layer all mint ids the same way.
func GenerateID() uuid.UUID {
	return uuid.New()
}

// Parse decodes a decimal's canonical string form, as produced by D.String.
// Used by the wire layer, which encodes prices and quantities as strings
// rather than floats to avoid reintroducing the precision loss this package
// exists to avoid.
func Parse(s string) (D, error) {
	return decimal.NewFromString(s)
}
