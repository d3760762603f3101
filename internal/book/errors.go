package book

import "errors"

// Error taxonomy for the order book engine (spec.md §4.8). ErrOrderNotFound
// is declared for completeness but never returned: CancelOrder on an unknown
// id reports success with a nil order instead, matching the source's
// Ok(None) behavior rather than surfacing a distinct not-found error. See
// SPEC_FULL.md §9 item 1.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidPrice         = errors.New("invalid price")
)
