package types

import "github.com/shopspring/decimal"

// FeeSchedule holds per-venue taker fees as fractions (0.001 = 10 bps).
// Profitability stays fee-blind in the core math; the schedule is the hook
// for reporting what a chain would net after fees.
type FeeSchedule struct {
	taker   map[string]decimal.Decimal
	missing decimal.Decimal
}

// NewFeeSchedule builds a schedule from per-venue fractions. Venues absent
// from the map fall back to defaultFee.
func NewFeeSchedule(taker map[string]float64, defaultFee float64) *FeeSchedule {
	fees := make(map[string]decimal.Decimal, len(taker))
	for venue, fee := range taker {
		fees[venue] = decimal.NewFromFloat(fee)
	}
	return &FeeSchedule{
		taker:   fees,
		missing: decimal.NewFromFloat(defaultFee),
	}
}

// Taker returns the taker fee fraction for a venue.
func (f *FeeSchedule) Taker(venue string) decimal.Decimal {
	if fee, ok := f.taker[venue]; ok {
		return fee
	}
	return f.missing
}

// AdjustedProfit compounds each trade's effective rate with (1 - fee) for
// its venue and returns the net profitability of the chain.
func (f *FeeSchedule) AdjustedProfit(c Chain) decimal.Decimal {
	one := decimal.NewFromInt(1)
	factor := one
	for _, t := range c {
		net := one.Sub(f.Taker(t.Exchange))
		factor = factor.Mul(decimal.NewFromFloat(t.Value)).Mul(net)
	}
	return factor.Sub(one)
}
