package amm

import (
	"sync"

	"github.com/google/uuid"

	dec "fenrir/internal/decimal"
)

// LiquidityPool holds one pair's reserves and its liquidity-provider ledger.
// Grounded on liquidity_pool.rs; one write lock covers reserves and the
// position ledger together per spec.md §5.
type LiquidityPool struct {
	mu sync.Mutex

	pool      Pool
	positions map[uuid.UUID]PoolPosition
}

// NewLiquidityPool creates a pool with the given initial reserves.
func NewLiquidityPool(tokenA, tokenB string, reserveA, reserveB, feePercentage dec.D) *LiquidityPool {
	return &LiquidityPool{
		pool: Pool{
			ID:            dec.GenerateID(),
			TokenA:        tokenA,
			TokenB:        tokenB,
			ReserveA:      reserveA,
			ReserveB:      reserveB,
			FeePercentage: feePercentage,
		},
		positions: make(map[uuid.UUID]PoolPosition),
	}
}

// Info returns a snapshot of the pool's current reserves and parameters.
func (p *LiquidityPool) Info() Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool
}

// TokenA returns the pool's first token tag.
func (p *LiquidityPool) TokenA() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool.TokenA
}

// TokenB returns the pool's second token tag.
func (p *LiquidityPool) TokenB() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool.TokenB
}

// Reserves returns (reserveA, reserveB).
func (p *LiquidityPool) Reserves() (dec.D, dec.D) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool.ReserveA, p.pool.ReserveB
}

// AddLiquidity deposits amountA/amountB and records the provider's position.
// Share is 1 for the first deposit into an empty pool; otherwise
// share = (amountA + amountB) / (reserveA + reserveB), a formula that sums
// two different token denominations as if fungible. Kept as defined
// (spec.md §9 open question 3), not rewritten to the conventional
// sqrt(a*b)/sqrt(reserveA*reserveB) proportional-minting formula.
func (p *LiquidityPool) AddLiquidity(provider uuid.UUID, amountA, amountB dec.D) (PoolPosition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	totalLiquidity := p.pool.ReserveA.Add(p.pool.ReserveB)
	var share dec.D
	if totalLiquidity.IsZero() {
		share = dec.One
	} else {
		share = amountA.Add(amountB).Div(totalLiquidity)
	}

	position := PoolPosition{
		PoolID:          p.pool.ID,
		ProviderID:      provider,
		TokenAAmount:    amountA,
		TokenBAmount:    amountB,
		SharePercentage: share,
	}

	p.pool.ReserveA = p.pool.ReserveA.Add(amountA)
	p.pool.ReserveB = p.pool.ReserveB.Add(amountB)
	p.positions[provider] = position

	return position, nil
}

// RemoveLiquidity withdraws a provider's entire recorded position, refunding
// exactly the amounts they originally deposited, not a proportional share of
// the pool's current reserves. Under this design LPs neither collect
// accrued swap fees nor absorb impermanent loss/gain (spec.md §9 open
// question 5).
func (p *LiquidityPool) RemoveLiquidity(provider uuid.UUID) (PoolPosition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	position, ok := p.positions[provider]
	if !ok {
		return PoolPosition{}, ErrInsufficientLiquidity
	}
	delete(p.positions, provider)

	p.pool.ReserveA = p.pool.ReserveA.Sub(position.TokenAAmount)
	p.pool.ReserveB = p.pool.ReserveB.Sub(position.TokenBAmount)

	return position, nil
}

// ExecuteSwap mutates reserves: +inputAmount on the input token's side,
// -outputAmount on the other. The caller (the AMM coordinator) is
// responsible for ensuring outputAmount does not exceed the output
// reserve; this method does not re-check for negative reserves itself.
func (p *LiquidityPool) ExecuteSwap(inputToken string, inputAmount, outputAmount dec.D) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if inputToken == p.pool.TokenA {
		p.pool.ReserveA = p.pool.ReserveA.Add(inputAmount)
		p.pool.ReserveB = p.pool.ReserveB.Sub(outputAmount)
	} else {
		p.pool.ReserveB = p.pool.ReserveB.Add(inputAmount)
		p.pool.ReserveA = p.pool.ReserveA.Sub(outputAmount)
	}

	return nil
}

// CalculateFee returns the absolute fee in input-token units.
func (p *LiquidityPool) CalculateFee(amount dec.D) dec.D {
	p.mu.Lock()
	defer p.mu.Unlock()
	return amount.Mul(p.pool.FeePercentage)
}
