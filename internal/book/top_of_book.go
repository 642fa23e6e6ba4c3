// Package book holds the in-memory latest-value caches: one top-of-book per
// feed source and the open position/order book.
package book

import (
	"github.com/yanun0323/logs"

	"main/internal/collections"
	"main/internal/model"
	"main/internal/model/enum"
)

// TopOfBook keeps the most recently received quote per symbol for a single
// feed source. Instances for different sources are never merged; cross-source
// comparison is the arbiter's job.
type TopOfBook struct {
	source enum.Source
	quotes *collections.ObservableMap[string, model.Quote]
}

// NewTopOfBook creates an empty book for the given source.
func NewTopOfBook(source enum.Source) *TopOfBook {
	return &TopOfBook{
		source: source,
		quotes: collections.NewObservableMap[string, model.Quote](),
	}
}

// Source returns the feed source this book belongs to.
func (b *TopOfBook) Source() enum.Source {
	return b.source
}

// AddQuote stores quote as the latest value for its symbol. The write is
// unconditional; whether the prices actually moved only decides logging.
func (b *TopOfBook) AddQuote(quote model.Quote) {
	if previous, ok := b.quotes.Get(quote.Symbol); ok && quote.BidAskChanged(previous) {
		logs.Debugf("top of book %s moved, symbol: %s, bid: %s, ask: %s",
			b.source, quote.Symbol, quote.Bid, quote.Ask)
	}

	b.quotes.Set(quote.Symbol, quote)
}

// Quote returns the latest quote for symbol.
func (b *TopOfBook) Quote(symbol string) (model.Quote, bool) {
	return b.quotes.Get(symbol)
}

// Subscribe registers a listener for every quote update.
func (b *TopOfBook) Subscribe(listener collections.Listener[string, model.Quote]) collections.Token {
	return b.quotes.SubscribeSet(listener)
}

// Unsubscribe removes a previously registered listener.
func (b *TopOfBook) Unsubscribe(token collections.Token) {
	b.quotes.Unsubscribe(token)
}

// Len returns the number of symbols currently cached.
func (b *TopOfBook) Len() int {
	return b.quotes.Len()
}

// Symbols returns the cached symbols in unspecified order.
func (b *TopOfBook) Symbols() []string {
	return b.quotes.Keys()
}
