package quoting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioParams() Params {
	params := DefaultParams()
	params.MidPrice = decimal.RequireFromString("68.88")
	params.Volatility = decimal.RequireFromString("0.92")
	params.Inventory = decimal.RequireFromString("100")
	params.TargetInventory = decimal.RequireFromString("100")
	params.RiskAversion = decimal.RequireFromString("0.35")
	params.Kappa = decimal.RequireFromString("12.1")
	params.TimeLeftFraction = decimal.RequireFromString("0.01")
	return params
}

func TestReservationEqualsMidAtTargetInventory(t *testing.T) {
	proposal, err := Propose(scenarioParams())
	require.NoError(t, err)

	assert.True(t, proposal.ReservationPrice.Equal(decimal.RequireFromString("68.88")),
		"b == b0 must leave reservation price at mid, got %s", proposal.ReservationPrice)

	// bid/ask symmetric around mid
	below := proposal.ReservationPrice.Sub(proposal.Bid)
	above := proposal.Ask.Sub(proposal.ReservationPrice)
	assert.True(t, below.Equal(above))
}

func TestProposeConcreteScenario(t *testing.T) {
	proposal, err := Propose(scenarioParams())
	require.NoError(t, err)

	assert.InDelta(t, 0.1659, proposal.OptimalSpread.InexactFloat64(), 0.001)
	assert.InDelta(t, 68.963, proposal.Ask.InexactFloat64(), 0.001)
	assert.InDelta(t, 68.797, proposal.Bid.InexactFloat64(), 0.001)
}

func TestInventorySkewLowersReservation(t *testing.T) {
	params := scenarioParams()
	params.Inventory = decimal.RequireFromString("150") // long 50 over target

	proposal, err := Propose(params)
	require.NoError(t, err)

	assert.True(t, proposal.ReservationPrice.LessThan(params.MidPrice),
		"excess inventory must push the reservation price down")

	params.Inventory = decimal.RequireFromString("50")
	proposal, err = Propose(params)
	require.NoError(t, err)
	assert.True(t, proposal.ReservationPrice.GreaterThan(params.MidPrice))
}

func TestValidateRejectsBadConfiguration(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Params)
		want   error
	}{
		{"zero kappa", func(p *Params) { p.Kappa = decimal.Zero }, ErrNonPositiveKappa},
		{"negative kappa", func(p *Params) { p.Kappa = decimal.RequireFromString("-1") }, ErrNonPositiveKappa},
		{"zero gamma", func(p *Params) { p.RiskAversion = decimal.Zero }, ErrNonPositiveRiskAversion},
		{"negative gamma", func(p *Params) { p.RiskAversion = decimal.RequireFromString("-0.1") }, ErrNonPositiveRiskAversion},
		{"zero mid", func(p *Params) { p.MidPrice = decimal.Zero }, ErrNonPositiveMidPrice},
		{"zero quantum", func(p *Params) { p.PriceQuantum = decimal.Zero }, ErrNonPositiveQuantum},
		{"negative vol", func(p *Params) { p.Volatility = decimal.RequireFromString("-0.5") }, ErrNegativeVolatility},
		{"tau above one", func(p *Params) { p.TimeLeftFraction = decimal.RequireFromString("1.5") }, ErrTimeLeftOutOfRange},
	} {
		t.Run(tc.name, func(t *testing.T) {
			params := scenarioParams()
			tc.mutate(&params)

			_, err := Propose(params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTickRoundingAlwaysMovesAway(t *testing.T) {
	params := scenarioParams() // quantum 0.01

	down := params.TickDown(decimal.RequireFromString("10.00"))
	assert.True(t, down.Equal(decimal.RequireFromString("9.99")), "got %s", down)

	up := params.TickUp(decimal.RequireFromString("9.99"))
	assert.True(t, up.Equal(decimal.RequireFromString("10.01")), "got %s", up)

	// round trip does not restore the input
	x := decimal.RequireFromString("10.00")
	assert.False(t, params.TickUp(params.TickDown(x)).Equal(x))

	// off-tick prices move strictly past plain rounding
	up = params.TickUp(decimal.RequireFromString("9.995"))
	assert.True(t, up.Equal(decimal.RequireFromString("10.01")), "got %s", up)
	down = params.TickDown(decimal.RequireFromString("9.995"))
	assert.True(t, down.Equal(decimal.RequireFromString("9.98")), "got %s", down)
}

func TestSpreadBandsOrdering(t *testing.T) {
	params := scenarioParams()

	inflation := params.SpreadInflation()
	assert.True(t, inflation.GreaterThanOrEqual(decimal.NewFromInt(1)))

	assert.True(t, params.MinLimitBid().LessThan(params.MaxLimitBid()))
	assert.True(t, params.MaxLimitBid().LessThan(params.MidPrice))
	assert.True(t, params.MidPrice.LessThan(params.MinLimitAsk()))
	assert.True(t, params.MinLimitAsk().LessThan(params.MaxLimitAsk()))
}

func TestSimpleScalesAtAndBelowTarget(t *testing.T) {
	k := decimal.RequireFromString("0.5")
	b0 := decimal.RequireFromString("100")

	// above initial inventory both scales collapse to 1
	above := decimal.RequireFromString("120")
	assert.True(t, SimpleBidScale(k, above, b0).Equal(decimal.NewFromInt(1)))
	assert.True(t, SimpleAskScale(k, above, b0).Equal(decimal.NewFromInt(1)))

	// at half inventory: 1 - 0.5 + 0.25*0.5 = 0.625
	half := decimal.RequireFromString("50")
	bid := SimpleBidScale(k, half, b0)
	assert.InDelta(t, 0.625, bid.InexactFloat64(), 1e-12)
	assert.InDelta(t, 1.6, SimpleAskScale(k, half, b0).InexactFloat64(), 1e-9)
}
