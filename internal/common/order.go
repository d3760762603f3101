package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dec "fenrir/internal/decimal"
)

// Order is a single resting or transient instruction to buy or sell a
// symbol. Quantity is the remaining (unfilled) amount; TotalQuantity is the
// amount originally requested.
type Order struct {
	UUID          uuid.UUID // Order tracked uuid
	AssetType     AssetType //
	OrderType     OrderType //
	Ticker        string    // Specific asset identifier
	Side          Side      // Order side
	LimitPrice    dec.D     // Limiting price
	Quantity      dec.D     // Remaining quantity
	TotalQuantity dec.D     // Total volume requested
	Timestamp     time.Time // Time of arrival of order
	ExchTimestamp time.Time // Time of arrival of order into the book
	Owner         string    // Who owns this order

	// seq is the arrival sequence number the order book assigns on
	// acceptance; zero until then. Matching does not read it: within a price
	// level, orders are matched in the order they were appended to the level.
	seq uint64
}

// Remaining returns the quantity left to execute.
func (order Order) Remaining() dec.D {
	return order.Quantity
}

// Filled returns the quantity executed so far.
func (order Order) Filled() dec.D {
	return order.TotalQuantity.Sub(order.Quantity)
}

// IsFilled reports whether the order has no remaining quantity.
func (order Order) IsFilled() bool {
	return order.Quantity.LessThanOrEqual(dec.Zero)
}

// Seq returns the order's book-assigned arrival sequence. The book records
// it but does not consult it when matching (see book.PriceLevel).
func (order Order) Seq() uint64 {
	return order.seq
}

// WithSeq returns a copy of the order carrying the given sequence number.
func (order Order) WithSeq(seq uint64) Order {
	order.seq = seq
	return order
}

func (order Order) String() string {
	return fmt.Sprintf(
		`UUID:          %v
AssetType:     %v
OrderType:     %v
Ticker:        %s
Side:          %v
LimitPrice:    %s
Quantity:      %s (Total: %s)
Timestamp:     %v
ExchTimestamp: %v
Owner:         %s`,
		order.UUID,
		order.AssetType,
		order.OrderType,
		order.Ticker,
		order.Side,
		order.LimitPrice.String(),
		order.Quantity.String(),
		order.TotalQuantity.String(),
		order.Timestamp.Format(time.RFC3339), // Formatted for readability
		order.ExchTimestamp.Format(time.RFC3339),
		order.Owner,
	)
}
