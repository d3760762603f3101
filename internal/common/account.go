package common

import (
	"sync"

	"github.com/google/uuid"

	dec "fenrir/internal/decimal"
)

// Account tracks one owner's balance and net per-symbol position. Neither
// the order book nor the AMM package touches it directly; the engine
// updates it after a fill settles, keeping cash movement out of scope while
// still giving position bookkeeping somewhere real to live.
type Account struct {
	UserID    uuid.UUID
	Balance   dec.D
	positions map[string]dec.D
	mu        sync.RWMutex
}

// NewAccount returns an Account with zero balance and no open positions.
func NewAccount(userID uuid.UUID) *Account {
	return &Account{
		UserID:    userID,
		Balance:   dec.Zero,
		positions: make(map[string]dec.D),
	}
}

// GetPosition returns the signed net position for a symbol, or zero if the
// account holds none.
func (a *Account) GetPosition(symbol string) dec.D {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if pos, ok := a.positions[symbol]; ok {
		return pos
	}
	return dec.Zero
}

// UpdatePosition sets the net position for a symbol to the given quantity.
func (a *Account) UpdatePosition(symbol string, quantity dec.D) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.positions[symbol] = quantity
}
