package amm

import (
	"github.com/google/uuid"

	dec "fenrir/internal/decimal"
)

// Pool is the public snapshot of a liquidity pool's state, grounded on
// original_source/backend/orderbook/src/market_maker/types.rs::Pool.
type Pool struct {
	ID            uuid.UUID
	TokenA        string
	TokenB        string
	ReserveA      dec.D
	ReserveB      dec.D
	FeePercentage dec.D
}

// PoolPosition records what a single liquidity provider deposited into a
// pool, and the share of the pool that deposit was worth at the time.
type PoolPosition struct {
	PoolID          uuid.UUID
	ProviderID      uuid.UUID
	TokenAAmount    dec.D
	TokenBAmount    dec.D
	SharePercentage dec.D
}

// SwapResult is returned by both Quote (a preview) and Swap (the realized
// fill).
type SwapResult struct {
	InputAmount  dec.D
	OutputAmount dec.D
	PriceImpact  dec.D
	FeeAmount    dec.D
}
