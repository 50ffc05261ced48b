package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSellSide(t *testing.T) {
	bids := []PriceLevel{
		{Price: 100, Quantity: 2},
		{Price: 99, Quantity: 3},
		{Price: 0, Quantity: 5},
		{Price: -1, Quantity: 5},
	}

	book := SellSide(bids)

	assert.Equal(t, Book{
		{Rate: 100, Volume: 2},
		{Rate: 99, Volume: 3},
	}, book)
}

func TestBuySide(t *testing.T) {
	asks := []PriceLevel{
		{Price: 5000, Quantity: 2},
		{Price: 6000, Quantity: 1},
		{Price: 0, Quantity: 9},
	}

	book := BuySide(asks)

	assert.Len(t, book, 2)
	assert.InDelta(t, 1.0/5000, book[0].Rate, 1e-15)
	assert.Equal(t, 10000.0, book[0].Volume)
	assert.InDelta(t, 1.0/6000, book[1].Rate, 1e-15)
	assert.Equal(t, 6000.0, book[1].Volume)
}

func TestBookFill(t *testing.T) {
	tests := []struct {
		name   string
		book   Book
		volume float64
		want   Fill
		ok     bool
	}{
		{
			name:   "single level covers request",
			book:   Book{{Rate: 10000, Volume: 3}},
			volume: 2,
			want:   Fill{AvgRate: 10000, Limit: 10000, Output: 20000},
			ok:     true,
		},
		{
			name:   "exact volume boundary",
			book:   Book{{Rate: 10000, Volume: 2}},
			volume: 2,
			want:   Fill{AvgRate: 10000, Limit: 10000, Output: 20000},
			ok:     true,
		},
		{
			name:   "walk across levels",
			book:   Book{{Rate: 2, Volume: 2}, {Rate: 1, Volume: 2}},
			volume: 4,
			want:   Fill{AvgRate: 1.5, Limit: 1, Output: 6},
			ok:     true,
		},
		{
			name:   "insufficient liquidity",
			book:   Book{{Rate: 2, Volume: 1}, {Rate: 1, Volume: 0.5}},
			volume: 2,
			ok:     false,
		},
		{
			name:   "empty book",
			book:   Book{},
			volume: 1,
			ok:     false,
		},
		{
			name:   "non-positive volume",
			book:   Book{{Rate: 2, Volume: 10}},
			volume: 0,
			ok:     false,
		},
		{
			name:   "infinite level absorbs any request",
			book:   Book{{Rate: 0.5, Volume: math.Inf(1)}},
			volume: 1e9,
			want:   Fill{AvgRate: 0.5, Limit: 0.5, Output: 5e8},
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fill, ok := tt.book.Fill(tt.volume)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.InDelta(t, tt.want.AvgRate, fill.AvgRate, 1e-12)
			assert.Equal(t, tt.want.Limit, fill.Limit)
			assert.InDelta(t, tt.want.Output, fill.Output, 1e-9)
		})
	}
}

func TestBookFillLimitIsWorstTouched(t *testing.T) {
	book := Book{
		{Rate: 3, Volume: 1},
		{Rate: 2, Volume: 1},
		{Rate: 1, Volume: 10},
	}

	fill, ok := book.Fill(2)

	assert.True(t, ok)
	assert.Equal(t, 2.0, fill.Limit)
	assert.InDelta(t, 2.5, fill.AvgRate, 1e-12)
}

func TestOppositeDirectionsNeverCompound(t *testing.T) {
	// Selling then buying back through the same order book must not create
	// value: top(bid side) * top(inverted ask side) <= 1 whenever bid <= ask.
	bids := []PriceLevel{{Price: 9990, Quantity: 1}}
	asks := []PriceLevel{{Price: 10010, Quantity: 1}}

	sell := SellSide(bids)
	buy := BuySide(asks)

	assert.LessOrEqual(t, sell[0].Rate*buy[0].Rate, 1.0+1e-12)
}
