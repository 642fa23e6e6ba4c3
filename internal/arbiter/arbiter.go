// Package arbiter cross-checks two independently sourced top-of-book caches
// and publishes a dissonance event whenever their mid prices disagree.
package arbiter

import (
	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/collections"
	"main/internal/model"
	"main/internal/obs"
)

// Sink receives dissonance events. Delivery guarantees belong to the sink;
// the arbitrator never retries a failed publish.
type Sink interface {
	Publish(model.Dissonance) error
}

// Option configures a PriceArbitrator.
type Option func(*PriceArbitrator)

// WithTolerance sets the absolute mid-price difference below which the two
// sources are considered to agree. The default is zero: any difference
// fires. Whether a nonzero band is wanted in production is still an open
// product question; the knob exists so callers can decide.
func WithTolerance(tolerance decimal.Decimal) Option {
	return func(a *PriceArbitrator) { a.tolerance = tolerance }
}

// WithMetrics attaches pipeline counters.
func WithMetrics(metrics *obs.Metrics) Option {
	return func(a *PriceArbitrator) { a.metrics = metrics }
}

// PriceArbitrator subscribes to both books and compares the updated side
// against the latest value on the other side. Comparison happens on the
// producer's delivery goroutine; there is no debouncing, so a comparison may
// run against a value from a different wall-clock moment. That is accepted:
// the core has no staleness horizon.
type PriceArbitrator struct {
	primary   *book.TopOfBook
	secondary *book.TopOfBook
	sink      Sink
	tolerance decimal.Decimal
	metrics   *obs.Metrics

	primaryToken   collections.Token
	secondaryToken collections.Token
}

// New wires an arbitrator to both books. Close releases the subscriptions.
func New(primary, secondary *book.TopOfBook, sink Sink, opts ...Option) *PriceArbitrator {
	a := &PriceArbitrator{
		primary:   primary,
		secondary: secondary,
		sink:      sink,
		tolerance: decimal.Zero,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.primaryToken = primary.Subscribe(func(symbol string, quote model.Quote) {
		other, ok := a.secondary.Quote(symbol)
		if !ok {
			a.metrics.IncSkipped()
			return
		}
		a.arbitrate(symbol, quote, other)
	})
	a.secondaryToken = secondary.Subscribe(func(symbol string, quote model.Quote) {
		other, ok := a.primary.Quote(symbol)
		if !ok {
			a.metrics.IncSkipped()
			return
		}
		a.arbitrate(symbol, other, quote)
	})

	return a
}

// Close detaches the arbitrator from both books.
func (a *PriceArbitrator) Close() {
	a.primary.Unsubscribe(a.primaryToken)
	a.secondary.Unsubscribe(a.secondaryToken)
}

// arbitrate compares mid prices and publishes a dissonance when they differ
// beyond tolerance. Any panic or publish failure is contained here; a single
// bad comparison must not take the arbitrator down.
func (a *PriceArbitrator) arbitrate(symbol string, primary, secondary model.Quote) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("arbitrate panicked, symbol: %s, err: %+v", symbol, r)
		}
	}()

	a.metrics.IncComparison()

	if !primary.HasPrices() || !secondary.HasPrices() {
		a.metrics.IncSkipped()
		logs.Debugf("skip arbitration on malformed quote, symbol: %s", symbol)
		return
	}

	diff := primary.Mid().Sub(secondary.Mid()).Abs()
	if diff.LessThanOrEqual(a.tolerance) {
		return
	}

	a.metrics.IncDissonance()
	logs.Warnf("mid prices differ, symbol: %s, %s: %s, %s: %s",
		symbol, primary.Source, primary.Mid(), secondary.Source, secondary.Mid())
	logs.Warnf("%s quote: %+v", primary.Source, primary)
	logs.Warnf("%s quote: %+v", secondary.Source, secondary)

	if err := a.sink.Publish(model.NewDissonance(symbol, primary, secondary)); err != nil {
		a.metrics.IncSinkError()
		logs.Errorf("publish dissonance, symbol: %s, err: %+v", symbol, err)
	}
}
