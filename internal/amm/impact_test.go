package amm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/amm"
)

func TestPriceImpactCalculator_SmallSwap_LowImpact(t *testing.T) {
	c := amm.NewPriceImpactCalculator(d("10"), d("1.1"))
	impact, err := c.CalculatePriceImpact(d("1"), d("1000"), d("1"))
	require.NoError(t, err)
	assert.True(t, impact.LessThan(d("0.01")), "impact %s should be small for a tiny swap against deep reserves", impact)
}

// A swap that is half the reserve crosses the 0.1*reserve threshold and gets
// scaled up by impactMultiplier*depthFactor.
func TestPriceImpactCalculator_LargeSwap_HighImpact(t *testing.T) {
	c := amm.NewPriceImpactCalculator(d("10"), d("1.1"))
	impact, err := c.CalculatePriceImpact(d("500"), d("1000"), d("1"))
	require.NoError(t, err)
	assert.True(t, impact.GreaterThan(d("0.3")), "impact %s should be large for a swap that is half the reserve", impact)
}

func TestPriceImpactCalculator_AboveThreshold_FailsMaxImpact(t *testing.T) {
	c := amm.NewPriceImpactCalculator(d("0.05"), d("1.1"))
	_, err := c.CalculatePriceImpact(d("500"), d("1000"), d("1"))
	assert.ErrorIs(t, err, amm.ErrPriceImpactTooHigh)
}

func TestPriceImpactCalculator_ExceedsMaxImpact(t *testing.T) {
	c := amm.NewPriceImpactCalculator(d("0.05"), d("1.1"))
	assert.True(t, c.ExceedsMaxImpact(d("0.1")))
	assert.False(t, c.ExceedsMaxImpact(d("0.01")))
}

// The estimate shaves the plain constant-product output down by half the
// computed impact, so it must fall strictly between zero and the unadjusted
// constant-product figure for a swap large enough to register any impact.
func TestPriceImpactCalculator_EstimateOutputWithImpact_BelowConstantProduct(t *testing.T) {
	c := amm.NewPriceImpactCalculator(d("1"), d("1.1"))
	output, impact, err := c.EstimateOutputWithImpact(d("100"), d("1000"), d("1000"))
	require.NoError(t, err)

	k := d("1000000")
	idealOutput := d("1000").Sub(k.Div(d("1100")))

	assert.True(t, impact.GreaterThan(d("0")))
	assert.True(t, output.GreaterThan(d("0")))
	assert.True(t, output.LessThan(idealOutput))
}

func TestPriceImpactCalculator_DepthFactorRatio_EqualReserves(t *testing.T) {
	c := amm.NewPriceImpactCalculator(d("1"), d("1.1"))
	ratio := c.DepthFactorRatio(d("100"), d("100"))
	assert.True(t, ratio.Sub(d("1")).Abs().LessThan(d("0.01")))
}

func TestPriceImpactCalculator_DepthFactor_GeometricMean(t *testing.T) {
	c := amm.NewPriceImpactCalculator(d("1"), d("1.1"))
	depth := c.DepthFactor(d("100"), d("100"))
	assert.True(t, depth.Sub(d("100")).Abs().LessThan(d("0.01")))
}

func TestPriceImpactCalculator_EmptyReserve(t *testing.T) {
	c := amm.NewPriceImpactCalculator(d("1"), d("1.1"))
	_, err := c.CalculatePriceImpact(d("1"), d("0"), d("1"))
	assert.ErrorIs(t, err, amm.ErrInsufficientLiquidity)
}
