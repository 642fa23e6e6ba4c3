package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"main/internal/quoting"
)

func main() {
	mid := flag.String("mid", "68.88", "Mid price")
	vol := flag.String("vol", "0.92", "Volatility estimate")
	inventory := flag.String("inventory", "100", "Current inventory")
	target := flag.String("target", "100", "Target inventory")
	gamma := flag.String("gamma", "0.35", "Inventory risk aversion")
	kappa := flag.String("kappa", "12.1", "Order book liquidity coefficient")
	tau := flag.String("tau", "0.01", "Fraction of time left until horizon")
	quantum := flag.String("quantum", "0.01", "Minimum price increment")
	flag.Parse()

	params := quoting.DefaultParams()
	fields := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{*mid, &params.MidPrice},
		{*vol, &params.Volatility},
		{*inventory, &params.Inventory},
		{*target, &params.TargetInventory},
		{*gamma, &params.RiskAversion},
		{*kappa, &params.Kappa},
		{*tau, &params.TimeLeftFraction},
		{*quantum, &params.PriceQuantum},
	}
	for _, field := range fields {
		value, err := decimal.NewFromString(field.raw)
		if err != nil {
			log.Fatalf("parse %q: %v", field.raw, err)
		}
		*field.dst = value
	}

	proposal, err := quoting.Propose(params)
	if err != nil {
		log.Fatalf("propose: %v", err)
	}

	fmt.Printf("reservation price: %s\n", proposal.ReservationPrice.StringFixed(6))
	fmt.Printf("optimal spread:    %s\n", proposal.OptimalSpread.StringFixed(6))
	fmt.Printf("bid / ask:         %s / %s\n", proposal.Bid.StringFixed(6), proposal.Ask.StringFixed(6))
	fmt.Printf("bid band:          [%s, %s]\n", params.MinLimitBid().StringFixed(6), params.MaxLimitBid().StringFixed(6))
	fmt.Printf("ask band:          [%s, %s]\n", params.MinLimitAsk().StringFixed(6), params.MaxLimitAsk().StringFixed(6))
	fmt.Printf("tick up / down:    %s / %s\n",
		params.TickUp(proposal.Ask).StringFixed(6), params.TickDown(proposal.Bid).StringFixed(6))
}
