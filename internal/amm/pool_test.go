package amm_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/amm"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLiquidityPool_AddLiquidity_FirstDepositGetsFullShare(t *testing.T) {
	p := amm.NewLiquidityPool("ETH", "USDC", d("0"), d("0"), d("0.003"))

	pos, err := p.AddLiquidity(uuid.New(), d("10"), d("20000"))
	require.NoError(t, err)
	assert.True(t, pos.SharePercentage.Equal(d("1")))

	reserveA, reserveB := p.Reserves()
	assert.True(t, reserveA.Equal(d("10")))
	assert.True(t, reserveB.Equal(d("20000")))
}

func TestLiquidityPool_AddLiquidity_SubsequentSharesSumDenominations(t *testing.T) {
	p := amm.NewLiquidityPool("ETH", "USDC", d("10"), d("20000"), d("0.003"))

	pos, err := p.AddLiquidity(uuid.New(), d("1"), d("2000"))
	require.NoError(t, err)
	// share = (1 + 2000) / (10 + 20000), summing ETH and USDC units directly.
	expected := d("2001").Div(d("20010"))
	assert.True(t, pos.SharePercentage.Equal(expected))
}

func TestLiquidityPool_RemoveLiquidity_RefundsOriginalDeposit(t *testing.T) {
	p := amm.NewLiquidityPool("ETH", "USDC", d("10"), d("20000"), d("0.003"))
	provider := uuid.New()

	_, err := p.AddLiquidity(provider, d("1"), d("2000"))
	require.NoError(t, err)

	// A swap moves reserves around after the deposit.
	require.NoError(t, p.ExecuteSwap("ETH", d("5"), d("4000")))
	reserveABeforeRemove, reserveBBeforeRemove := p.Reserves()

	pos, err := p.RemoveLiquidity(provider)
	require.NoError(t, err)
	assert.True(t, pos.TokenAAmount.Equal(d("1")))
	assert.True(t, pos.TokenBAmount.Equal(d("2000")))

	// Refund subtracts exactly the original deposit, not a proportional
	// share of the post-swap reserves.
	reserveA, reserveB := p.Reserves()
	assert.True(t, reserveA.Equal(reserveABeforeRemove.Sub(d("1"))))
	assert.True(t, reserveB.Equal(reserveBBeforeRemove.Sub(d("2000"))))
}

func TestLiquidityPool_RemoveLiquidity_UnknownProvider(t *testing.T) {
	p := amm.NewLiquidityPool("ETH", "USDC", d("10"), d("20000"), d("0.003"))
	_, err := p.RemoveLiquidity(uuid.New())
	assert.ErrorIs(t, err, amm.ErrInsufficientLiquidity)
}

func TestLiquidityPool_ExecuteSwap_MutatesBothReserves(t *testing.T) {
	p := amm.NewLiquidityPool("ETH", "USDC", d("10"), d("20000"), d("0.003"))

	require.NoError(t, p.ExecuteSwap("ETH", d("1"), d("1818")))

	reserveA, reserveB := p.Reserves()
	assert.True(t, reserveA.Equal(d("11")))
	assert.True(t, reserveB.Equal(d("18182")))
}

func TestLiquidityPool_CalculateFee(t *testing.T) {
	p := amm.NewLiquidityPool("ETH", "USDC", d("10"), d("20000"), d("0.003"))
	fee := p.CalculateFee(d("1000"))
	assert.True(t, fee.Equal(d("3")))
}
