// Package quoting derives bid/ask proposals from an inventory-risk-adjusted
// reservation-price model.
package quoting

import (
	stderrors "errors"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

var (
	ErrNonPositiveKappa        = stderrors.New("quoting: liquidity coefficient must be positive")
	ErrNonPositiveRiskAversion = stderrors.New("quoting: risk aversion must be positive")
	ErrNonPositiveMidPrice     = stderrors.New("quoting: mid price must be positive")
	ErrNonPositiveQuantum      = stderrors.New("quoting: price quantum must be positive")
	ErrNegativeVolatility      = stderrors.New("quoting: volatility must not be negative")
	ErrTimeLeftOutOfRange      = stderrors.New("quoting: time left fraction must be within [0, 1]")
)

const lnPrecision = 16

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// Params is one immutable set of model inputs. The computation is a pure
// function of this value; nothing here is shared or mutated.
type Params struct {
	MidPrice         decimal.Decimal
	Volatility       decimal.Decimal
	Inventory        decimal.Decimal
	TargetInventory  decimal.Decimal
	RiskAversion     decimal.Decimal
	Kappa            decimal.Decimal
	TimeLeftFraction decimal.Decimal
	PriceQuantum     decimal.Decimal

	// QAdjustment rescales the inventory skew, e.g. 1e5 / inventory in base.
	QAdjustment decimal.Decimal

	// Spread band tuning for the limit accessors.
	VolToSpreadMultiplier decimal.Decimal
	MinSpread             decimal.Decimal
	MaxSpread             decimal.Decimal
}

// DefaultParams returns band and scaling defaults; market inputs still need
// to be filled in by the caller.
func DefaultParams() Params {
	return Params{
		PriceQuantum:          decimal.RequireFromString("0.01"),
		QAdjustment:           one,
		VolToSpreadMultiplier: decimal.RequireFromString("1.8"),
		MinSpread:             decimal.RequireFromString("0.30"),
		MaxSpread:             decimal.RequireFromString("0.60"),
	}
}

// Validate fails fast on inputs the formulas cannot absorb, instead of
// letting them surface as garbage quotes.
func (p Params) Validate() error {
	if !p.Kappa.IsPositive() {
		return errors.Wrapf(ErrNonPositiveKappa, "kappa: %s", p.Kappa)
	}
	if !p.RiskAversion.IsPositive() {
		return errors.Wrapf(ErrNonPositiveRiskAversion, "gamma: %s", p.RiskAversion)
	}
	if !p.MidPrice.IsPositive() {
		return errors.Wrapf(ErrNonPositiveMidPrice, "mid: %s", p.MidPrice)
	}
	if !p.PriceQuantum.IsPositive() {
		return errors.Wrapf(ErrNonPositiveQuantum, "quantum: %s", p.PriceQuantum)
	}
	if p.Volatility.IsNegative() {
		return errors.Wrapf(ErrNegativeVolatility, "vol: %s", p.Volatility)
	}
	if p.TimeLeftFraction.IsNegative() || p.TimeLeftFraction.GreaterThan(one) {
		return errors.Wrapf(ErrTimeLeftOutOfRange, "tau: %s", p.TimeLeftFraction)
	}
	return nil
}

// Proposal is a bid/ask pair symmetric around the reservation price.
type Proposal struct {
	ReservationPrice decimal.Decimal
	OptimalSpread    decimal.Decimal
	Bid              decimal.Decimal
	Ask              decimal.Decimal
}

// Propose computes the inventory-risk-adjusted quote:
//
//	r      = mid - (b - b0) * qAdj * gamma * sigma^2 * tau
//	spread = gamma * sigma^2 * tau + (2/gamma) * ln(1 + gamma/kappa)
//
// With inventory at target the reservation price equals mid and the quote is
// symmetric around it.
func Propose(p Params) (Proposal, error) {
	if err := p.Validate(); err != nil {
		return Proposal{}, err
	}

	variance := p.Volatility.Mul(p.Volatility)
	skew := p.Inventory.Sub(p.TargetInventory).Mul(p.QAdjustment)
	reservation := p.MidPrice.Sub(skew.Mul(p.RiskAversion).Mul(variance).Mul(p.TimeLeftFraction))

	logTerm, err := one.Add(p.RiskAversion.Div(p.Kappa)).Ln(lnPrecision)
	if err != nil {
		return Proposal{}, errors.Wrap(err, "spread log term")
	}
	spread := p.RiskAversion.Mul(variance).Mul(p.TimeLeftFraction).
		Add(two.Div(p.RiskAversion).Mul(logTerm))

	half := spread.Div(two)
	return Proposal{
		ReservationPrice: reservation,
		OptimalSpread:    spread,
		Bid:              reservation.Sub(half),
		Ask:              reservation.Add(half),
	}, nil
}

// TickUp moves price to the second tick above its current quantum bucket, one
// tick past plain ceiling rounding. TickDown is the mirror below. Both always
// land strictly away from the input, even for prices already on a tick.
func (p Params) TickUp(price decimal.Decimal) decimal.Decimal {
	return price.Div(p.PriceQuantum).Floor().Add(two).Mul(p.PriceQuantum)
}

// TickDown moves price one tick below its current quantum bucket.
func (p Params) TickDown(price decimal.Decimal) decimal.Decimal {
	return price.Div(p.PriceQuantum).Floor().Sub(one).Mul(p.PriceQuantum)
}

// SpreadInflation widens the limit bands when volatility dominates the
// minimum spread.
func (p Params) SpreadInflation() decimal.Decimal {
	floor := p.MidPrice.Mul(p.MinSpread)
	return decimal.Max(p.VolToSpreadMultiplier.Mul(p.Volatility), floor).Div(floor)
}

// MinLimitBid is the lowest bid the band allows.
func (p Params) MinLimitBid() decimal.Decimal {
	return p.MidPrice.Mul(one.Sub(p.MaxSpread.Mul(p.SpreadInflation())))
}

// MaxLimitBid is the highest bid the band allows.
func (p Params) MaxLimitBid() decimal.Decimal {
	return p.MidPrice.Mul(one.Sub(p.MinSpread.Mul(p.SpreadInflation())))
}

// MinLimitAsk is the lowest ask the band allows.
func (p Params) MinLimitAsk() decimal.Decimal {
	return p.MidPrice.Mul(one.Add(p.MinSpread.Mul(p.SpreadInflation())))
}

// MaxLimitAsk is the highest ask the band allows.
func (p Params) MaxLimitAsk() decimal.Decimal {
	return p.MidPrice.Mul(one.Add(p.MaxSpread.Mul(p.SpreadInflation())))
}
