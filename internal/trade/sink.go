// Package trade implements the trade event channel: a multi-consumer,
// best-effort sink shared by every symbol's order book (spec.md §4.3). Each
// subscriber gets a buffer of subscriberBuffer trades; the sink does not grow
// it, and a trade for a subscriber whose buffer is full is dropped.
package trade

import (
	"sync"

	"github.com/rs/zerolog/log"

	"fenrir/internal/common"
)

const subscriberBuffer = 256

// Sink fans out executed trades to zero or more subscribers. Publish never
// blocks the matching engine and never fails: a subscriber that can't keep
// up has its trade dropped and logged, not the whole engine stalled.
type Sink struct {
	mu          sync.Mutex
	subscribers []chan common.Trade
}

// NewSink returns an empty trade sink.
func NewSink() *Sink {
	return &Sink{}
}

// Subscribe registers a new consumer and returns its delivery channel. The
// channel is never closed by the sink; callers that stop reading simply
// stop receiving (and eventually have sends dropped under load).
func (s *Sink) Subscribe() <-chan common.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan common.Trade, subscriberBuffer)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Publish broadcasts a trade to every subscriber, in the order it's called.
// A full subscriber channel is skipped rather than awaited.
func (s *Sink) Publish(t common.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- t:
		default:
			log.Debug().Str("tradeID", t.ID.String()).Msg("trade sink: dropping, subscriber channel full")
		}
	}
}
