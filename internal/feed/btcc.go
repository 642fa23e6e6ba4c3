package feed

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

const (
	_btccBaseWsUrl    = "wss://spotprice2.btcccdn.com/ws"
	_btccBaseWsUrlDev = "wss://spot.cryptouat.com:8700/ws"

	btccWsMethodStateID = 2
)

// BtccFeed streams the market state channel.
type BtccFeed struct {
	wss *ws.WebSocket
}

// NewBtccFeed prepares a feed. devMode switches to the UAT endpoint.
func NewBtccFeed(ctx context.Context, devMode bool) *BtccFeed {
	wsURL := _btccBaseWsUrl
	if devMode {
		wsURL = _btccBaseWsUrlDev
	}

	return &BtccFeed{
		wss: ws.New(ctx, wsURL),
	}
}

func (f *BtccFeed) Source() enum.Source {
	return enum.SourceBTCC
}

func (f *BtccFeed) Len() int {
	return f.wss.Len()
}

func (f *BtccFeed) Close() {
	f.wss.Close()
}

func (f *BtccFeed) StartWebsocket(ctx context.Context) error {
	if err := f.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

type btccSubscribeResponse struct {
	ID int `json:"id"`

	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`

	Result struct {
		Status string `json:"status"`
	} `json:"result"`
}

type btccResponse struct {
	ID     any               `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func (r btccResponse) Unmarshal(index int, p any) error {
	if index >= len(r.Params) {
		return errors.Wrapf(exception.ErrIndexOutOfRange, "index: %d, len: %d", index, len(r.Params))
	}

	if err := json.Unmarshal(r.Params[index], p); err != nil {
		return errors.Wrapf(err, "unmarshal from index: %d", index)
	}

	return nil
}

// BtccState is the raw state channel payload for one market.
type BtccState struct {
	Bid     decimal.Decimal `json:"bid"`
	BidSize decimal.Decimal `json:"bid_amount"`
	Ask     decimal.Decimal `json:"ask"`
	AskSize decimal.Decimal `json:"ask_amount"`
	Last    decimal.Decimal `json:"last"`
	Time    int64           `json:"time"`
}

// SubscribeQuotes subscribes the state channel for one market.
func (f *BtccFeed) SubscribeQuotes(ctx context.Context, symbol string) error {
	if err := f.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			if err := client.WriteJSON(map[string]any{
				"id":     btccWsMethodStateID,
				"method": "state.subscribe",
				"params": []any{symbol},
			}); err != nil {
				return errors.Wrap(err, "write subscribe state payload")
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			var resp btccSubscribeResponse
			if err := m.Unmarshal(&resp); err != nil || resp.ID != btccWsMethodStateID {
				return false, nil
			}

			if resp.Error != nil {
				return false, errors.Wrapf(exception.ErrInResponseError,
					"code: %d, message: %s", resp.Error.Code, resp.Error.Message)
			}
			return true, nil
		},
	}, true); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

// ObserveQuotes decodes state updates into quotes.
func (f *BtccFeed) ObserveQuotes(ctx context.Context, handler func(model.Quote)) (unsubscribe func()) {
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

				resp, ok := ws.ReadMessage[btccResponse](m)
				if !ok || resp.Method != "state.update" {
					continue
				}

				var market string
				if err := resp.Unmarshal(0, &market); err != nil {
					logs.Errorf("unmarshal state market, err: %+v", err)
					continue
				}

				var state BtccState
				if err := resp.Unmarshal(1, &state); err != nil {
					logs.Errorf("unmarshal state payload, err: %+v", err)
					continue
				}

				handler(state.Quote(market))
			}
		}
	}()

	return cancel
}

// Quote converts the raw state into the model shape. The channel reports
// seconds; the model carries nanoseconds.
func (s BtccState) Quote(market string) model.Quote {
	return model.Quote{
		Symbol:    market,
		Bid:       s.Bid,
		Ask:       s.Ask,
		Last:      s.Last,
		BidSize:   s.BidSize.IntPart(),
		AskSize:   s.AskSize.IntPart(),
		Source:    enum.SourceBTCC,
		Timestamp: s.Time * int64(1e9),
	}
}
