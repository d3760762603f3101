package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dec "fenrir/internal/decimal"
)

// Trade is the persisted record of a single fill. It names only the maker
// (resting) order: the taker is known transiently to the engine that
// produced the fill, and downstream consumers correlate fills back to a
// taker by watching the event stream rather than by a field on the trade
// itself.
type Trade struct {
	ID           uuid.UUID
	MakerOrderID uuid.UUID
	Price        dec.D
	Quantity     dec.D
	CreatedAt    time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`ID:           %v
MakerOrderID: %v
Price:        %s
Quantity:     %s
CreatedAt:    %v`,
		t.ID,
		t.MakerOrderID,
		t.Price.String(),
		t.Quantity.String(),
		t.CreatedAt.Format(time.RFC3339),
	)
}
