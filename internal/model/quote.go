package model

import (
	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

var two = decimal.NewFromInt(2)

// Quote is the latest top-of-book view of one symbol from one feed source.
// Timestamps are UTC nanoseconds.
type Quote struct {
	Symbol     string
	Bid        decimal.Decimal
	Ask        decimal.Decimal
	Last       decimal.Decimal
	BidSize    int64
	AskSize    int64
	LastSize   int64
	ContractID int64
	Exchange   string
	Source     enum.Source
	Timestamp  int64
}

// Mid returns the arithmetic mean of bid and ask.
func (q Quote) Mid() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(two)
}

// HasPrices reports whether both sides carry a usable price.
func (q Quote) HasPrices() bool {
	return q.Bid.IsPositive() && q.Ask.IsPositive()
}

// BidAskChanged reports whether this quote is materially different from
// other. Only the prices matter; size-only updates are not material.
func (q Quote) BidAskChanged(other Quote) bool {
	return !q.Bid.Equal(other.Bid) || !q.Ask.Equal(other.Ask)
}
