package quoting

import "github.com/shopspring/decimal"

// SimpleBidScale returns a price multiplier in (0, 1] that backs the bid away
// as inventory b falls below the initial inventory b0. k in [0, 1] controls
// how aggressively the scale reacts.
func SimpleBidScale(k, b, b0 decimal.Decimal) decimal.Decimal {
	if b.GreaterThan(b0) {
		return one
	}
	ratio := b.Div(b0)
	return one.Sub(k).Add(ratio.Mul(ratio).Mul(k))
}

// SimpleAskScale is the reciprocal multiplier applied to the ask side.
func SimpleAskScale(k, b, b0 decimal.Decimal) decimal.Decimal {
	if b.GreaterThan(b0) {
		return one
	}
	return one.Div(SimpleBidScale(k, b, b0))
}
