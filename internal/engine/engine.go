// Package engine wires together the per-symbol order books behind a single
// dispatch surface (the AMM coordinator is separate), and tracks the thin
// bookkeeping (order ownership, order location) the wire protocol needs but
// the core book/amm packages deliberately don't carry (spec.md §3, §4.7).
package engine

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fenrir/internal/book"
	"fenrir/internal/common"
	dec "fenrir/internal/decimal"
	"fenrir/internal/trade"
)

// Reporter is notified of every fill the engine produces, so the wire server
// can push execution reports without the engine needing to know anything
// about sockets. The engine calls only ReportTrade; placement errors are
// returned from PlaceOrder, not passed to ReportError.
type Reporter interface {
	ReportTrade(taker common.Order, makerOwner string, t common.Trade) error
	ReportError(ownerAddress string, err error) error
}

// Engine is the top-level order-handling surface: a registry of order books
// keyed by asset type and ticker, sharing one trade sink.
type Engine struct {
	mu    sync.RWMutex
	books map[common.AssetType]map[string]*book.OrderBook

	sink *trade.Sink

	reporterMu sync.RWMutex
	reporter   Reporter

	// ownerOf and orderLocation exist only to let the thin wire layer
	// resolve a maker's display name and an order's book from a bare uuid;
	// nothing in book/amm needs either.
	ownerMu       sync.RWMutex
	ownerOf       map[uuid.UUID]string
	orderLocation map[uuid.UUID]assetTicker

	// accounts tracks each owner's net position per symbol. Settlement
	// (moving cash) stays out of scope; this only keeps position bookkeeping
	// in sync with fills so a collaborator balance view has something real
	// to read.
	accountsMu sync.Mutex
	accounts   map[string]*common.Account
}

type assetTicker struct {
	assetType common.AssetType
	ticker    string
}

// New builds an empty engine sharing a single trade sink across every book
// it will lazily create.
func New() *Engine {
	return &Engine{
		books:         make(map[common.AssetType]map[string]*book.OrderBook),
		sink:          trade.NewSink(),
		ownerOf:       make(map[uuid.UUID]string),
		orderLocation: make(map[uuid.UUID]assetTicker),
		accounts:      make(map[string]*common.Account),
	}
}

// SetReporter installs the collaborator notified of fills and errors.
func (e *Engine) SetReporter(r Reporter) {
	e.reporterMu.Lock()
	defer e.reporterMu.Unlock()
	e.reporter = r
}

func (e *Engine) bookFor(assetType common.AssetType, ticker string) *book.OrderBook {
	e.mu.Lock()
	defer e.mu.Unlock()

	byTicker, ok := e.books[assetType]
	if !ok {
		byTicker = make(map[string]*book.OrderBook)
		e.books[assetType] = byTicker
	}

	b, ok := byTicker[ticker]
	if !ok {
		b = book.NewOrderBook(ticker, e.sink)
		byTicker[ticker] = b
	}
	return b
}

// PlaceOrder routes order to its symbol's book, records ownership/location
// bookkeeping for any leg that now rests or matched, and reports every fill
// through the installed Reporter.
func (e *Engine) PlaceOrder(assetType common.AssetType, order common.Order) error {
	b := e.bookFor(assetType, order.Ticker)

	taker, trades, err := b.PlaceOrder(order)
	if err != nil {
		return err
	}

	e.recordOwnership(taker, assetType)

	for _, t := range trades {
		makerOwner := e.lookupOwner(t.MakerOrderID)
		e.settlePositions(taker, makerOwner, t)

		e.report(func(r Reporter) error {
			return r.ReportTrade(taker, makerOwner, t)
		})
	}

	return nil
}

// settlePositions updates both sides' net position in the given symbol. A
// buy taker gains quantity and the maker (necessarily selling) loses it, or
// vice versa; cash movement is out of scope (see common.Account).
func (e *Engine) settlePositions(taker common.Order, makerOwner string, t common.Trade) {
	takerDelta := t.Quantity
	if taker.Side == common.Sell {
		takerDelta = t.Quantity.Neg()
	}

	takerAccount := e.accountFor(taker.Owner)
	takerAccount.UpdatePosition(taker.Ticker, takerAccount.GetPosition(taker.Ticker).Add(takerDelta))

	if makerOwner != "" {
		makerAccount := e.accountFor(makerOwner)
		makerAccount.UpdatePosition(taker.Ticker, makerAccount.GetPosition(taker.Ticker).Sub(takerDelta))
	}
}

func (e *Engine) accountFor(owner string) *common.Account {
	e.accountsMu.Lock()
	defer e.accountsMu.Unlock()

	a, ok := e.accounts[owner]
	if !ok {
		a = common.NewAccount(uuid.New())
		e.accounts[owner] = a
	}
	return a
}

// CancelOrder looks up which book an order belongs to and cancels it there.
// CancelOrder on an unknown id returns (nil, nil), matching the book's own
// contract (spec.md §9 open question 1).
func (e *Engine) CancelOrder(assetType common.AssetType, id uuid.UUID) (*common.Order, error) {
	e.ownerMu.RLock()
	loc, ok := e.orderLocation[id]
	e.ownerMu.RUnlock()
	if !ok {
		return nil, nil
	}

	b := e.bookFor(loc.assetType, loc.ticker)
	order, err := b.CancelOrder(id)
	if err != nil {
		return nil, err
	}

	e.ownerMu.Lock()
	delete(e.orderLocation, id)
	delete(e.ownerOf, id)
	e.ownerMu.Unlock()

	return order, nil
}

// LogBook writes a depth summary for every known book to the structured
// logger, a lightweight stand-in for a dashboard or snapshot endpoint.
func (e *Engine) LogBook() {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for assetType, byTicker := range e.books {
		for ticker, b := range byTicker {
			nBuy, nSell, buyQty, sellQty := b.Depth()
			log.Info().
				Int("assetType", int(assetType)).
				Str("ticker", ticker).
				Uint64("bidOrders", nBuy).
				Uint64("askOrders", nSell).
				Str("bidQty", buyQty.String()).
				Str("askQty", sellQty.String()).
				Msg("engine: book depth")
		}
	}
}

// Subscribe exposes the shared trade feed to out-of-band consumers (tests,
// a future market-data publisher).
func (e *Engine) Subscribe() <-chan common.Trade {
	return e.sink.Subscribe()
}

// Position returns owner's net position in ticker, zero if they've never
// traded it.
func (e *Engine) Position(owner, ticker string) dec.D {
	e.accountsMu.Lock()
	defer e.accountsMu.Unlock()

	a, ok := e.accounts[owner]
	if !ok {
		return dec.Zero
	}
	return a.GetPosition(ticker)
}

func (e *Engine) recordOwnership(order common.Order, assetType common.AssetType) {
	e.ownerMu.Lock()
	defer e.ownerMu.Unlock()
	e.ownerOf[order.UUID] = order.Owner
	e.orderLocation[order.UUID] = assetTicker{assetType: assetType, ticker: order.Ticker}
}

func (e *Engine) lookupOwner(id uuid.UUID) string {
	e.ownerMu.RLock()
	defer e.ownerMu.RUnlock()
	return e.ownerOf[id]
}

func (e *Engine) report(fn func(Reporter) error) {
	e.reporterMu.RLock()
	r := e.reporter
	e.reporterMu.RUnlock()

	if r == nil {
		return
	}
	if err := fn(r); err != nil {
		log.Error().Err(err).Msg("engine: reporter failed")
	}
}
