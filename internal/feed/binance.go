package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/internal/model"
	"main/internal/model/enum"
)

const (
	_binanceBaseWsUrl = "wss://stream.binance.com:9443/ws"

	binanceSubscribeID = 1
)

// BinanceFeed streams the individual symbol book ticker.
type BinanceFeed struct {
	wss *ws.WebSocket
}

// NewBinanceFeed prepares a feed against the public stream endpoint.
func NewBinanceFeed(ctx context.Context) *BinanceFeed {
	return &BinanceFeed{
		wss: ws.New(ctx, _binanceBaseWsUrl),
	}
}

func (f *BinanceFeed) Source() enum.Source {
	return enum.SourceBinance
}

func (f *BinanceFeed) Len() int {
	return f.wss.Len()
}

func (f *BinanceFeed) Close() {
	f.wss.Close()
}

func (f *BinanceFeed) StartWebsocket(ctx context.Context) error {
	if err := f.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

type binanceSubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type binanceSubscribeResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

// BinanceBookTicker is the raw bookTicker stream payload.
type BinanceBookTicker struct {
	UpdateID int64  `json:"u"`
	Symbol   string `json:"s"`
	Bid      string `json:"b"`
	BidQty   string `json:"B"`
	Ask      string `json:"a"`
	AskQty   string `json:"A"`
}

// SubscribeQuotes subscribes 'Individual Symbol Book Ticker Stream'.
func (f *BinanceFeed) SubscribeQuotes(ctx context.Context, symbol string) error {
	if err := f.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			payload := binanceSubscribeRequest{
				Method: "SUBSCRIBE",
				Params: []string{
					fmt.Sprintf("%s@bookTicker", strings.ToLower(symbol)),
				},
				ID: binanceSubscribeID,
			}

			if err := client.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			var resp binanceSubscribeResponse
			if err := m.Unmarshal(&resp); err != nil || resp.ID != binanceSubscribeID {
				return false, nil
			}

			if resp.Result != nil {
				return false, errors.Errorf("subscribe and wait, err: %+v", resp.Result)
			}
			return true, nil
		},
	}, true); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

// ObserveQuotes decodes book ticker frames into quotes.
func (f *BinanceFeed) ObserveQuotes(ctx context.Context, handler func(model.Quote)) (unsubscribe func()) {
	ch, cancel := f.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				resp, ok := ws.ReadMessage[BinanceBookTicker](m)
				if !ok || resp.Symbol == "" {
					continue
				}

				quote, err := resp.Quote()
				if err != nil {
					logs.Errorf("decode binance book ticker, err: %+v", err)
					continue
				}

				handler(quote)
			}
		}
	}()

	return cancel
}

// Quote converts the raw payload into the model shape. The bookTicker stream
// carries no event time, so receive time is used.
func (t BinanceBookTicker) Quote() (model.Quote, error) {
	bid, err := decimal.NewFromString(t.Bid)
	if err != nil {
		return model.Quote{}, errors.Wrapf(err, "parse bid: %s", t.Bid)
	}
	ask, err := decimal.NewFromString(t.Ask)
	if err != nil {
		return model.Quote{}, errors.Wrapf(err, "parse ask: %s", t.Ask)
	}
	bidQty, err := decimal.NewFromString(t.BidQty)
	if err != nil {
		return model.Quote{}, errors.Wrapf(err, "parse bid qty: %s", t.BidQty)
	}
	askQty, err := decimal.NewFromString(t.AskQty)
	if err != nil {
		return model.Quote{}, errors.Wrapf(err, "parse ask qty: %s", t.AskQty)
	}

	return model.Quote{
		Symbol:    t.Symbol,
		Bid:       bid,
		Ask:       ask,
		BidSize:   bidQty.IntPart(),
		AskSize:   askQty.IntPart(),
		Source:    enum.SourceBinance,
		Timestamp: time.Now().UTC().UnixNano(),
	}, nil
}
