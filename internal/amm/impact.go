package amm

import (
	dec "fenrir/internal/decimal"
)

// PriceImpactCalculator estimates how far a swap will move a constant-product
// pool's spot price, and derives an expected output net of that impact.
// Grounded on original_source/backend/orderbook/src/market_maker/price_impact.rs.
type PriceImpactCalculator struct {
	MaxImpact        dec.D
	ImpactMultiplier dec.D
	SqrtConfig       dec.SqrtConfig
}

// NewPriceImpactCalculator builds a calculator with the given impact ceiling
// and depth-adjustment multiplier.
func NewPriceImpactCalculator(maxImpact, impactMultiplier dec.D) PriceImpactCalculator {
	return PriceImpactCalculator{
		MaxImpact:        maxImpact,
		ImpactMultiplier: impactMultiplier,
		SqrtConfig:       dec.DefaultSqrtConfig(),
	}
}

// CalculatePriceImpact returns the fractional price impact of trading input
// against reserve, scaled up by depthFactor once input exceeds a tenth of
// the reserve:
//
//	baseImpact = input / (reserve + 2*input)
//	adjusted   = baseImpact                                                     if input <= 0.1*reserve
//	adjusted   = baseImpact * (1 + (input/reserve - 0.1) * impactMultiplier * depthFactor)   otherwise
//
// Fails with ErrInsufficientLiquidity when reserve is zero, or
// ErrPriceImpactTooHigh when the adjusted impact exceeds MaxImpact.
func (c PriceImpactCalculator) CalculatePriceImpact(input, reserve, depthFactor dec.D) (dec.D, error) {
	if reserve.IsZero() {
		return dec.Zero, ErrInsufficientLiquidity
	}

	baseImpact := input.Div(reserve.Add(dec.Two.Mul(input)))

	adjusted := baseImpact
	if input.GreaterThan(reserve.Mul(dec.Tenth)) {
		excess := input.Div(reserve).Sub(dec.Tenth)
		adjusted = baseImpact.Mul(dec.One.Add(excess.Mul(c.ImpactMultiplier).Mul(depthFactor)))
	}

	if adjusted.GreaterThan(c.MaxImpact) {
		return adjusted, ErrPriceImpactTooHigh
	}
	return adjusted, nil
}

// EstimateOutputWithImpact runs the constant-product quote adjusted for
// price impact, without mutating any pool state:
//
//	depthFactor  = sqrt(max(inputReserve, outputReserve) / min(inputReserve, outputReserve))
//	idealOutput  = outputReserve - (inputReserve*outputReserve) / (inputReserve + input)
//	actualOutput = idealOutput * (1 - impact*0.5)
func (c PriceImpactCalculator) EstimateOutputWithImpact(input, inputReserve, outputReserve dec.D) (output, impact dec.D, err error) {
	depthFactor := c.DepthFactorRatio(inputReserve, outputReserve)

	impact, err = c.CalculatePriceImpact(input, inputReserve, depthFactor)
	if err != nil {
		return dec.Zero, impact, err
	}

	k := inputReserve.Mul(outputReserve)
	idealOutput := outputReserve.Sub(k.Div(inputReserve.Add(input)))
	output = idealOutput.Mul(dec.One.Sub(impact.Mul(dec.Half)))

	return output, impact, nil
}

// DepthFactorRatio is sqrt(max(reserveA, reserveB) / min(reserveA, reserveB)),
// the liquidity-depth term EstimateOutputWithImpact scales impact by. Zero if
// either reserve is zero.
func (c PriceImpactCalculator) DepthFactorRatio(reserveA, reserveB dec.D) dec.D {
	if reserveA.IsZero() || reserveB.IsZero() {
		return dec.Zero
	}

	maxReserve, minReserve := reserveA, reserveB
	if reserveB.GreaterThan(reserveA) {
		maxReserve, minReserve = reserveB, reserveA
	}
	return dec.Sqrt(maxReserve.Div(minReserve), c.SqrtConfig)
}

// DepthFactor is the geometric mean of both reserves, sqrt(reserveA*reserveB):
// the same quantity Uniswap-style pools use to size LP shares. Exposed as an
// independent, separately-tested unit, as in the source.
func (c PriceImpactCalculator) DepthFactor(reserveA, reserveB dec.D) dec.D {
	return dec.Sqrt(reserveA.Mul(reserveB), c.SqrtConfig)
}

// ExceedsMaxImpact reports whether impact breaches the configured ceiling.
func (c PriceImpactCalculator) ExceedsMaxImpact(impact dec.D) bool {
	return impact.GreaterThan(c.MaxImpact)
}
