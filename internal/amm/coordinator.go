// Package amm implements the constant-product automated market maker:
// liquidity pools, price-impact estimation, and slippage protection,
// co-resident with the order book engine (spec.md §4.4-4.6).
package amm

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	dec "fenrir/internal/decimal"
)

// Coordinator is the AMM's top-level entry point: a registry of liquidity
// pools keyed by token pair, plus the shared impact/slippage machinery every
// pool's swaps run through. Grounded on
// original_source/backend/orderbook/src/market_maker/amm.rs.
type Coordinator struct {
	mu    sync.RWMutex
	pools map[string]*LiquidityPool

	impact   PriceImpactCalculator
	slippage SlippageGuard
}

// NewCoordinator builds an AMM coordinator with the given impact ceiling,
// depth-adjustment multiplier, and default slippage tolerance.
func NewCoordinator(maxImpact, impactMultiplier, defaultSlippage dec.D) *Coordinator {
	return &Coordinator{
		pools:    make(map[string]*LiquidityPool),
		impact:   NewPriceImpactCalculator(maxImpact, impactMultiplier),
		slippage: NewSlippageGuard(defaultSlippage),
	}
}

func pairKey(tokenA, tokenB string) string {
	return fmt.Sprintf("%s-%s", tokenA, tokenB)
}

// CreatePool registers a new pool for tokenA/tokenB, seeded with the given
// reserves. Returns ErrInvalidPoolParameters if the pair already exists or
// either reserve is non-positive.
func (c *Coordinator) CreatePool(tokenA, tokenB string, reserveA, reserveB, feePercentage dec.D) (Pool, error) {
	if reserveA.LessThanOrEqual(dec.Zero) || reserveB.LessThanOrEqual(dec.Zero) {
		return Pool{}, ErrInvalidPoolParameters
	}

	key := pairKey(tokenA, tokenB)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pools[key]; exists {
		return Pool{}, ErrInvalidPoolParameters
	}

	pool := NewLiquidityPool(tokenA, tokenB, reserveA, reserveB, feePercentage)
	c.pools[key] = pool

	log.Info().Str("pair", key).Str("reserveA", reserveA.String()).Str("reserveB", reserveB.String()).
		Msg("amm: pool created")

	return pool.Info(), nil
}

// GetPoolInfo returns a snapshot of the named pool's current state.
func (c *Coordinator) GetPoolInfo(tokenA, tokenB string) (Pool, error) {
	pool, err := c.lookup(tokenA, tokenB)
	if err != nil {
		return Pool{}, err
	}
	return pool.Info(), nil
}

// AddLiquidity deposits into an existing pool on behalf of provider.
func (c *Coordinator) AddLiquidity(tokenA, tokenB string, provider uuid.UUID, amountA, amountB dec.D) (PoolPosition, error) {
	pool, err := c.lookup(tokenA, tokenB)
	if err != nil {
		return PoolPosition{}, err
	}
	return pool.AddLiquidity(provider, amountA, amountB)
}

// RemoveLiquidity withdraws provider's full position from the named pool.
func (c *Coordinator) RemoveLiquidity(tokenA, tokenB string, provider uuid.UUID) (PoolPosition, error) {
	pool, err := c.lookup(tokenA, tokenB)
	if err != nil {
		return PoolPosition{}, err
	}
	return pool.RemoveLiquidity(provider)
}

// Quote previews a swap of inputAmount of inputToken for the other side of
// the tokenA/tokenB pool, without mutating any reserves. It also reports the
// fee (retained on the output side, but denominated in input-token units in
// the returned SwapResult, per spec.md §9 open question 4) and the price
// impact the swap would cause.
func (c *Coordinator) Quote(tokenA, tokenB, inputToken string, inputAmount dec.D) (SwapResult, error) {
	pool, err := c.lookup(tokenA, tokenB)
	if err != nil {
		return SwapResult{}, err
	}

	reserveIn, reserveOut, err := c.orientedReserves(pool, inputToken)
	if err != nil {
		return SwapResult{}, err
	}

	fee := pool.CalculateFee(inputAmount)

	output, priceImpact, err := c.impact.EstimateOutputWithImpact(inputAmount, reserveIn, reserveOut)
	if err != nil {
		return SwapResult{}, err
	}

	return SwapResult{
		InputAmount:  inputAmount,
		OutputAmount: output,
		PriceImpact:  priceImpact,
		FeeAmount:    fee,
	}, nil
}

// Swap executes a real trade against the tokenA/tokenB pool: it quotes the
// fill, rejects it if price impact exceeds the configured ceiling or if the
// realized output falls outside minOutput's slippage tolerance, then mutates
// the pool's reserves. The quote-check-mutate ordering matches amm.rs: the
// pool is never left in a partially-updated state on rejection.
func (c *Coordinator) Swap(tokenA, tokenB, inputToken string, inputAmount, minOutput dec.D) (SwapResult, error) {
	pool, err := c.lookup(tokenA, tokenB)
	if err != nil {
		return SwapResult{}, err
	}

	result, err := c.Quote(tokenA, tokenB, inputToken, inputAmount)
	if err != nil {
		return SwapResult{}, err
	}

	if result.OutputAmount.LessThanOrEqual(dec.Zero) {
		return SwapResult{}, ErrInsufficientLiquidity
	}

	if c.impact.ExceedsMaxImpact(result.PriceImpact) {
		return SwapResult{}, ErrPriceImpactTooHigh
	}

	if err := c.slippage.CheckSlippageDefault(result.OutputAmount, minOutput); err != nil {
		return SwapResult{}, err
	}

	if err := pool.ExecuteSwap(inputToken, inputAmount, result.OutputAmount.Sub(result.FeeAmount)); err != nil {
		return SwapResult{}, err
	}

	log.Info().Str("pair", pairKey(tokenA, tokenB)).Str("in", inputAmount.String()).
		Str("out", result.OutputAmount.String()).Str("impact", result.PriceImpact.String()).
		Msg("amm: swap executed")

	return result, nil
}

func (c *Coordinator) lookup(tokenA, tokenB string) (*LiquidityPool, error) {
	key := pairKey(tokenA, tokenB)

	c.mu.RLock()
	defer c.mu.RUnlock()

	pool, ok := c.pools[key]
	if !ok {
		return nil, ErrInvalidPoolParameters
	}
	return pool, nil
}

func (c *Coordinator) orientedReserves(pool *LiquidityPool, inputToken string) (reserveIn, reserveOut dec.D, err error) {
	reserveA, reserveB := pool.Reserves()
	switch inputToken {
	case pool.TokenA():
		return reserveA, reserveB, nil
	case pool.TokenB():
		return reserveB, reserveA, nil
	default:
		return dec.Zero, dec.Zero, ErrInvalidPoolParameters
	}
}
