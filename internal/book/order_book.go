// Package book implements the per-symbol central-limit order book:
// price-time priority matching, partial fills, resting and cancellation,
// over exact decimal arithmetic rather than floats, with explicit locking
// and a dedicated cancellation path.
package book

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"

	"fenrir/internal/common"
	dec "fenrir/internal/decimal"
	"fenrir/internal/trade"
)

// PriceLevel holds every resting order at a single price, oldest first
// (orders are appended on arrival and popped from the front as they fill,
// which is what gives FIFO priority within a level).
type PriceLevel struct {
	PriceLevel dec.D
	Orders     []*common.Order
}

type priceLevels = btree.BTreeG[*PriceLevel]

// OrderBook is the matching engine for a single symbol.
type OrderBook struct {
	symbol string

	mu   sync.RWMutex
	Bids *priceLevels
	Asks *priceLevels

	orders map[uuid.UUID]*common.Order

	sink *trade.Sink
	seq  atomic.Uint64

	nBuyOrders   uint64
	nSellOrders  uint64
	buyQuantity  dec.D
	sellQuantity dec.D
}

// NewOrderBook creates an empty book for symbol, publishing every trade it
// produces onto sink. sink may be nil, in which case trades are simply not
// broadcast (still returned to the caller).
func NewOrderBook(symbol string, sink *trade.Sink) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		// Highest price first; ties are broken inside the level by arrival.
		return a.PriceLevel.GreaterThan(b.PriceLevel)
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		// Lowest price first.
		return a.PriceLevel.LessThan(b.PriceLevel)
	})

	return &OrderBook{
		symbol:       symbol,
		Bids:         bids,
		Asks:         asks,
		orders:       make(map[uuid.UUID]*common.Order),
		sink:         sink,
		buyQuantity:  dec.Zero,
		sellQuantity: dec.Zero,
	}
}

// Symbol returns the ticker this book matches.
func (b *OrderBook) Symbol() string {
	return b.symbol
}

// PlaceOrder attempts to match order against the resting opposite side.
// Every fill produced is returned (and published to the trade sink) in the
// order it was produced. A Limit order's unfilled remainder rests on the
// book; a Market order's unfilled remainder is silently dropped, never
// rejected. The returned Order is the taker as it stood after matching
// (assigned id, sequence number, and remaining quantity) so callers that
// need to report on it don't have to re-derive those fields.
func (b *OrderBook) PlaceOrder(order common.Order) (common.Order, []common.Trade, error) {
	if order.OrderType == common.LimitOrder && order.LimitPrice.IsNegative() {
		return common.Order{}, nil, ErrInvalidPrice
	}
	if order.TotalQuantity.LessThanOrEqual(dec.Zero) {
		return common.Order{}, nil, ErrInsufficientQuantity
	}

	if order.UUID == uuid.Nil {
		order.UUID = dec.GenerateID()
	}
	if order.Quantity.IsZero() {
		// Caller submitted just TotalQuantity; Quantity tracks remaining.
		order.Quantity = order.TotalQuantity
	}
	order.ExchTimestamp = time.Now()
	order = order.WithSeq(b.seq.Add(1))

	b.mu.Lock()
	defer b.mu.Unlock()

	var (
		trades []common.Trade
		err    error
	)

	switch order.Side {
	case common.Buy:
		trades, err = b.matchAgainst(&order, b.Asks)
	case common.Sell:
		trades, err = b.matchAgainst(&order, b.Bids)
	}
	if err != nil {
		return common.Order{}, nil, err
	}

	if !order.IsFilled() && order.OrderType == common.LimitOrder {
		b.restOrder(order)
	}

	if b.sink != nil {
		for _, t := range trades {
			b.sink.Publish(t)
		}
	}

	return order, trades, nil
}

// matchAgainst sweeps the opposite side's price levels while they satisfy
// the taker's price and the taker still has quantity remaining.
func (b *OrderBook) matchAgainst(taker *common.Order, opposite *priceLevels) ([]common.Trade, error) {
	var trades []common.Trade

	for !taker.IsFilled() {
		level, ok := opposite.MinMut()
		if !ok {
			break
		}
		if taker.OrderType == common.LimitOrder && !crosses(taker, level.PriceLevel) {
			break
		}

		maker := level.Orders[0]
		qty := taker.Remaining()
		if maker.Remaining().LessThan(qty) {
			qty = maker.Remaining()
		}

		taker.Quantity = taker.Quantity.Sub(qty)
		maker.Quantity = maker.Quantity.Sub(qty)

		trades = append(trades, common.Trade{
			ID:           dec.GenerateID(),
			MakerOrderID: maker.UUID,
			Price:        maker.LimitPrice,
			Quantity:     qty,
			CreatedAt:    time.Now(),
		})

		if maker.IsFilled() {
			level.Orders = level.Orders[1:]
			delete(b.orders, maker.UUID)
			b.adjustBookKeeping(maker.Side, qty, -1)
			if len(level.Orders) == 0 {
				opposite.Delete(level)
			}
		} else {
			b.adjustBookKeeping(maker.Side, qty, 0)
		}
	}

	return trades, nil
}

// crosses reports whether a limit taker's price is acceptable against a
// resting price on the given side: a buy taker crosses an ask at or below
// its limit; a sell taker crosses a bid at or above its limit.
func crosses(taker *common.Order, restingPrice dec.D) bool {
	if taker.Side == common.Buy {
		return taker.LimitPrice.GreaterThanOrEqual(restingPrice)
	}
	return taker.LimitPrice.LessThanOrEqual(restingPrice)
}

func (b *OrderBook) restOrder(order common.Order) {
	var levels *priceLevels
	switch order.Side {
	case common.Buy:
		levels = b.Bids
		b.nBuyOrders++
		b.buyQuantity = b.buyQuantity.Add(order.Quantity)
	case common.Sell:
		levels = b.Asks
		b.nSellOrders++
		b.sellQuantity = b.sellQuantity.Add(order.Quantity)
	}

	stored := order
	level, ok := levels.GetMut(&PriceLevel{PriceLevel: order.LimitPrice})
	if ok {
		level.Orders = append(level.Orders, &stored)
	} else {
		levels.Set(&PriceLevel{PriceLevel: order.LimitPrice, Orders: []*common.Order{&stored}})
	}
	b.orders[stored.UUID] = &stored
}

func (b *OrderBook) adjustBookKeeping(makerSide common.Side, qty dec.D, orderDelta int) {
	switch makerSide {
	case common.Buy:
		b.buyQuantity = b.buyQuantity.Sub(qty)
		if orderDelta < 0 {
			b.nBuyOrders--
		}
	case common.Sell:
		b.sellQuantity = b.sellQuantity.Sub(qty)
		if orderDelta < 0 {
			b.nSellOrders--
		}
	}
}

// CancelOrder removes a resting order from the book. A missing id is not an
// error: it returns (nil, nil), mirroring the source's Ok(None) contract
// (spec.md §9 open question 1).
func (b *OrderBook) CancelOrder(id uuid.UUID) (*common.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[id]
	if !ok {
		return nil, nil
	}
	delete(b.orders, id)

	var levels *priceLevels
	switch order.Side {
	case common.Buy:
		levels = b.Bids
	case common.Sell:
		levels = b.Asks
	}

	level, ok := levels.GetMut(&PriceLevel{PriceLevel: order.LimitPrice})
	if ok {
		for i, o := range level.Orders {
			if o.UUID == id {
				level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
				break
			}
		}
		if len(level.Orders) == 0 {
			levels.Delete(level)
		}
	}

	b.adjustBookKeeping(order.Side, order.Quantity, -1)

	return order, nil
}

// Depth returns the number of resting orders and total resting quantity on
// each side, for introspection and the LogBook collaborator command.
func (b *OrderBook) Depth() (nBuy, nSell uint64, buyQty, sellQty dec.D) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nBuyOrders, b.nSellOrders, b.buyQuantity, b.sellQuantity
}
