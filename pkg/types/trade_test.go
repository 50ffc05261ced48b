package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeKeys(t *testing.T) {
	trade := Trade{
		Exchange: "binance",
		From:     "USD",
		To:       "BTC",
		Amount:   2,
		Limit:    5000,
		Value:    0.0002,
	}

	assert.Equal(t, TradeKey{Exchange: "binance", From: "USD", To: "BTC"}, trade.Key())
	assert.Equal(t, TradeKey{Exchange: "binance", From: "BTC", To: "USD"}, trade.InverseKey())
}

func TestTradeStringUsesEightFractionalDigits(t *testing.T) {
	trade := Trade{
		Exchange: "binance",
		From:     "USD",
		To:       "BTC",
		Amount:   1.5,
		Limit:    10000,
		Value:    0.0001,
	}

	assert.Equal(t,
		"{binance USD->BTC amount=1.50000000 limit=10000.00000000 value=0.00010000}",
		trade.String())
}

func TestChainProfitability(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty chain", values: nil, want: 0},
		{name: "single losing trade", values: []float64{0.9}, want: -0.1},
		{name: "compounding win", values: []float64{2, 0.75}, want: 0.5},
		{name: "break even", values: []float64{4, 0.25}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := make(Chain, 0, len(tt.values))
			for _, v := range tt.values {
				chain = append(chain, Trade{Value: v})
			}
			assert.InDelta(t, tt.want, chain.Profitability(), 1e-12)
		})
	}
}

func TestChainProfitabilityComposes(t *testing.T) {
	a := Chain{{Value: 1.1}, {Value: 0.97}}
	b := Chain{{Value: 1.02}}
	joined := append(append(Chain{}, a...), b...)

	composed := (1 + a.Profitability()) * (1 + b.Profitability())
	assert.InDelta(t, composed, 1+joined.Profitability(), 1e-12)
}

func TestChainExchanges(t *testing.T) {
	chain := Chain{
		{Exchange: "binance"},
		{Exchange: "bybit"},
		{Exchange: "binance"},
	}

	assert.Equal(t, 2, chain.Exchanges())
	assert.Equal(t, 0, Chain{}.Exchanges())
}

func TestChainOutput(t *testing.T) {
	chain := Chain{
		{Amount: 20, Value: 2},
		{Amount: 10, Value: 0.5},
	}

	assert.Equal(t, 10.0, chain.Output())
	assert.Equal(t, 0.0, Chain{}.Output())
}

func TestChainStart(t *testing.T) {
	chain := Chain{
		{From: "ETH", To: "BTC"},
		{From: "BTC", To: "ETH"},
	}

	assert.Equal(t, "ETH", chain.Start())
	assert.Equal(t, "", Chain{}.Start())
}

func TestOpportunityString(t *testing.T) {
	opp := Opportunity{
		Chain: Chain{
			{Exchange: "b", From: "USD", To: "BTC", Amount: 2, Limit: 5000, Value: 0.0002},
			{Exchange: "a", From: "BTC", To: "USD", Amount: 20000, Limit: 10000, Value: 10000},
		},
		Profit: 1.0,
	}

	s := opp.String()
	assert.True(t, strings.HasSuffix(s, "for 100% profit"), s)
	assert.Contains(t, s, "USD->BTC")
	assert.Contains(t, s, "BTC->USD")
}
