package arbiter

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/book"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
)

type captureSink struct {
	events []model.Dissonance
	err    error
}

func (s *captureSink) Publish(event model.Dissonance) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func newQuote(source enum.Source, symbol, bid, ask string) model.Quote {
	return model.Quote{
		Symbol: symbol,
		Bid:    decimal.RequireFromString(bid),
		Ask:    decimal.RequireFromString(ask),
		Source: source,
	}
}

func newBooks() (*book.TopOfBook, *book.TopOfBook) {
	return book.NewTopOfBook(enum.SourceBTCC), book.NewTopOfBook(enum.SourceBinance)
}

func TestDissonanceFromPrimaryUpdate(t *testing.T) {
	primary, secondary := newBooks()
	sink := &captureSink{}
	a := New(primary, secondary, sink)
	defer a.Close()

	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "100.00", "100.20"))
	require.Empty(t, sink.events, "no dissonance without both sides")

	primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.10", "100.30"))

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, "BTCUSDT", event.Symbol)
	assert.Equal(t, enum.SourceBTCC, event.Primary.Source)
	assert.Equal(t, enum.SourceBinance, event.Secondary.Source)
	assert.NotEmpty(t, event.ID)
	assert.NotZero(t, event.DetectedAt)
}

func TestDissonanceFromSecondaryUpdate(t *testing.T) {
	primary, secondary := newBooks()
	sink := &captureSink{}
	a := New(primary, secondary, sink)
	defer a.Close()

	primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.10", "100.30"))
	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "100.00", "100.20"))

	require.Len(t, sink.events, 1)
	// primary book's quote always lands in the Primary slot
	assert.Equal(t, enum.SourceBTCC, sink.events[0].Primary.Source)
	assert.Equal(t, enum.SourceBinance, sink.events[0].Secondary.Source)
}

func TestEqualMidsProduceNoEvent(t *testing.T) {
	primary, secondary := newBooks()
	sink := &captureSink{}
	a := New(primary, secondary, sink)
	defer a.Close()

	// different bid/ask, identical mid
	primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.00", "100.20"))
	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "100.05", "100.15"))

	assert.Empty(t, sink.events)
}

func TestToleranceSuppressesSmallDisagreement(t *testing.T) {
	primary, secondary := newBooks()
	sink := &captureSink{}
	a := New(primary, secondary, sink, WithTolerance(decimal.RequireFromString("0.10")))
	defer a.Close()

	primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.00", "100.10"))
	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "100.05", "100.15"))
	assert.Empty(t, sink.events, "difference within tolerance")

	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "100.50", "100.60"))
	assert.Len(t, sink.events, 1)
}

func TestMalformedQuoteSkipped(t *testing.T) {
	primary, secondary := newBooks()
	sink := &captureSink{}
	metrics := obs.NewMetrics()
	a := New(primary, secondary, sink, WithMetrics(metrics))
	defer a.Close()

	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "0", "0"))
	primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.00", "100.10"))

	assert.Empty(t, sink.events)
	assert.NotZero(t, metrics.Snapshot().Skipped)
}

func TestSinkFailureDoesNotStopArbitration(t *testing.T) {
	primary, secondary := newBooks()
	sink := &captureSink{err: errors.New("bus down")}
	metrics := obs.NewMetrics()
	a := New(primary, secondary, sink, WithMetrics(metrics))
	defer a.Close()

	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "100.00", "100.20"))
	primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.10", "100.30"))
	assert.Equal(t, uint64(1), metrics.Snapshot().SinkErrors)

	sink.err = nil
	primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.20", "100.40"))
	assert.Len(t, sink.events, 1, "arbitrator keeps serving after a failed publish")
}

type panicSink struct{}

func (panicSink) Publish(model.Dissonance) error { panic("sink exploded") }

func TestSinkPanicContained(t *testing.T) {
	primary, secondary := newBooks()
	a := New(primary, secondary, panicSink{})
	defer a.Close()

	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "100.00", "100.20"))
	assert.NotPanics(t, func() {
		primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.10", "100.30"))
	})

	// books stay usable
	latest, ok := primary.Quote("BTCUSDT")
	require.True(t, ok)
	assert.True(t, latest.Bid.Equal(decimal.RequireFromString("100.10")))
}

func TestCloseDetaches(t *testing.T) {
	primary, secondary := newBooks()
	sink := &captureSink{}
	a := New(primary, secondary, sink)

	secondary.AddQuote(newQuote(enum.SourceBinance, "BTCUSDT", "100.00", "100.20"))
	a.Close()

	primary.AddQuote(newQuote(enum.SourceBTCC, "BTCUSDT", "100.10", "100.30"))
	assert.Empty(t, sink.events)
}
