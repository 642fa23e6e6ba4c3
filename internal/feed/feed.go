// Package feed contains the venue adapters that decode provider streams into
// quotes and push them into a top-of-book cache. Each adapter owns one
// websocket connection and delivers on its own goroutine, so two adapters
// give the books their two independent producers.
package feed

import (
	"context"

	"main/internal/book"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
)

// Feed is one venue quote stream.
type Feed interface {
	Source() enum.Source
	StartWebsocket(ctx context.Context) error
	SubscribeQuotes(ctx context.Context, symbol string) error
	ObserveQuotes(ctx context.Context, handler func(model.Quote)) (unsubscribe func())
	Close()
}

// Relay attaches a feed to a top-of-book cache. Every decoded quote is
// stored unconditionally; the book handles fan-out to its subscribers.
func Relay(ctx context.Context, f Feed, tob *book.TopOfBook, metrics *obs.Metrics) (unsubscribe func()) {
	return f.ObserveQuotes(ctx, func(quote model.Quote) {
		metrics.IncQuote(f.Source())
		tob.AddQuote(quote)
	})
}
