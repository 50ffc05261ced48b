package rates

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mExArb/sharpshooter/internal/exchange"
	"github.com/mExArb/sharpshooter/pkg/types"
)

func newTestTable(t *testing.T, opts Options) *Table {
	t.Helper()
	syn, err := types.NewSynonymTable(types.DefaultSynonyms())
	require.NoError(t, err)
	table := New(syn, opts)
	t.Cleanup(table.Close)
	return table
}

func TestPopulateInstallsBothDirections(t *testing.T) {
	table := newTestTable(t, Options{})
	mock := exchange.NewMockExchange("binance")
	mock.SetBook("BTC/USD",
		[]types.PriceLevel{{Price: 9990, Quantity: 2}},
		[]types.PriceLevel{{Price: 10010, Quantity: 1}},
	)

	require.NoError(t, table.Populate(context.Background(), mock))

	sell, ok := table.Rate("binance", "BTC", "USD")
	require.True(t, ok)
	assert.Equal(t, 9990.0, sell[0].Rate)
	assert.Equal(t, 2.0, sell[0].Volume)

	buy, ok := table.Rate("binance", "USD", "BTC")
	require.True(t, ok)
	assert.InDelta(t, 1.0/10010, buy[0].Rate, 1e-15)
	assert.Equal(t, 10010.0, buy[0].Volume)

	// A sell/buy roundtrip through the same book never creates value.
	assert.LessOrEqual(t, sell[0].Rate*buy[0].Rate, 1.0+1e-12)

	// No self edges.
	_, ok = table.Rate("binance", "BTC", "BTC")
	assert.False(t, ok)
}

func TestRateResolvesSynonymsBothSides(t *testing.T) {
	table := newTestTable(t, Options{})
	mock := exchange.NewMockExchange("kraken")
	mock.SetBook("XBT/USD",
		[]types.PriceLevel{{Price: 10000, Quantity: 1}},
		[]types.PriceLevel{{Price: 10100, Quantity: 1}},
	)

	require.NoError(t, table.Populate(context.Background(), mock))

	for _, from := range []string{"XBT", "BTC"} {
		book, ok := table.Rate("kraken", from, "USD")
		assert.True(t, ok, from)
		assert.Equal(t, 10000.0, book[0].Rate, from)
	}
	for _, to := range []string{"XBT", "BTC"} {
		_, ok := table.Rate("kraken", "USD", to)
		assert.True(t, ok, to)
	}

	_, ok := table.Rate("kraken", "ETH", "USD")
	assert.False(t, ok)
	_, ok = table.Rate("nowhere", "BTC", "USD")
	assert.False(t, ok)
}

func TestOutgoingIncludesSynonymRows(t *testing.T) {
	table := newTestTable(t, Options{})
	mock := exchange.NewMockExchange("kraken")
	mock.SetBook("XBT/USD",
		[]types.PriceLevel{{Price: 10000, Quantity: 1}},
		[]types.PriceLevel{{Price: 10100, Quantity: 1}},
	)
	mock.SetBook("BTC/EUR",
		[]types.PriceLevel{{Price: 9000, Quantity: 1}},
		[]types.PriceLevel{{Price: 9100, Quantity: 1}},
	)

	require.NoError(t, table.Populate(context.Background(), mock))

	edges := table.Snapshot().Outgoing("kraken", "BTC")
	require.Len(t, edges, 2)
	// Destination-sorted: EUR before USD.
	assert.Equal(t, "EUR", edges[0].To)
	assert.Equal(t, "USD", edges[1].To)

	// The same edges are reachable under the synonym naming.
	edges = table.Snapshot().Outgoing("kraken", "XBT")
	assert.Len(t, edges, 2)
}

func TestOutgoingKeepsDualListedBooks(t *testing.T) {
	table := newTestTable(t, Options{})
	mock := exchange.NewMockExchange("kraken")
	// The same logical pair listed under both naming forms, with different
	// books behind each listing.
	mock.SetBook("BTC/USD",
		[]types.PriceLevel{{Price: 10000, Quantity: 1}},
		[]types.PriceLevel{{Price: 10100, Quantity: 1}},
	)
	mock.SetBook("XBT/USD",
		[]types.PriceLevel{{Price: 11000, Quantity: 1}},
		[]types.PriceLevel{{Price: 11100, Quantity: 1}},
	)

	require.NoError(t, table.Populate(context.Background(), mock))

	// Both listings survive as separate edges, direct form first.
	edges := table.Snapshot().Outgoing("kraken", "BTC")
	require.Len(t, edges, 2)
	assert.Equal(t, "USD", edges[0].To)
	assert.Equal(t, "USD", edges[1].To)
	assert.Equal(t, 10000.0, edges[0].Book[0].Rate)
	assert.Equal(t, 11000.0, edges[1].Book[0].Rate)

	// Queried under the other form, the direct listing leads.
	edges = table.Snapshot().Outgoing("kraken", "XBT")
	require.Len(t, edges, 2)
	assert.Equal(t, 11000.0, edges[0].Book[0].Rate)
	assert.Equal(t, 10000.0, edges[1].Book[0].Rate)
}

func TestPairs(t *testing.T) {
	table := newTestTable(t, Options{})
	mock := exchange.NewMockExchange("binance")
	mock.SetBook("ETH/BTC",
		[]types.PriceLevel{{Price: 0.05, Quantity: 10}},
		[]types.PriceLevel{{Price: 0.051, Quantity: 10}},
	)

	require.NoError(t, table.Populate(context.Background(), mock))

	pairs := table.Pairs()
	assert.Equal(t, []string{"BTC/ETH", "ETH/BTC"}, pairs["binance"])
}

func TestConversionsMergeVenues(t *testing.T) {
	table := newTestTable(t, Options{})
	levels := []types.PriceLevel{{Price: 0.05, Quantity: 10}}

	a := exchange.NewMockExchange("a")
	a.SetBook("ETH/BTC", levels, levels)
	b := exchange.NewMockExchange("b")
	b.SetBook("ETH/BTC", levels, levels)
	b.SetBook("ETH/USD", levels, levels)

	require.NoError(t, table.Populate(context.Background(), a))
	require.NoError(t, table.Populate(context.Background(), b))

	conversions := table.Snapshot().Conversions()
	// Shared edges collapse; every destination appears once.
	assert.Equal(t, []string{"BTC", "USD"}, conversions["ETH"])
	assert.Equal(t, []string{"ETH"}, conversions["BTC"])
	assert.Equal(t, []string{"ETH"}, conversions["USD"])
}

func TestSnapshotSeesOnlyCompleteGenerations(t *testing.T) {
	table := newTestTable(t, Options{})
	mock := exchange.NewMockExchange("binance")
	stage := func(gen int) {
		price := float64(1000 * gen)
		mock.SetBook("BTC/USD",
			[]types.PriceLevel{{Price: price, Quantity: 1}},
			[]types.PriceLevel{{Price: price + 10, Quantity: 1}},
		)
		mock.SetBook("ETH/USD",
			[]types.PriceLevel{{Price: price / 10, Quantity: 1}},
			[]types.PriceLevel{{Price: price/10 + 1, Quantity: 1}},
		)
	}
	stage(1)
	require.NoError(t, table.Populate(context.Background(), mock))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	var bad int32
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := table.Snapshot()
			btc, ok1 := snap.Rate("binance", "BTC", "USD")
			eth, ok2 := snap.Rate("binance", "ETH", "USD")
			if !ok1 || !ok2 {
				bad++
				return
			}
			// Both books must come from the same generation.
			if btc[0].Rate != eth[0].Rate*10 {
				bad++
				return
			}
		}
	}()

	for gen := 2; gen < 30; gen++ {
		stage(gen)
		require.NoError(t, table.Populate(context.Background(), mock))
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, bad, "reader observed a torn generation")
}
