package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mExArb/sharpshooter/pkg/types"
)

func newBybitServer(t *testing.T) *Bybit {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v5/market/instruments-info", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "spot" {
			http.Error(w, "bad category "+got, http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{
			"retCode": 0, "retMsg": "OK",
			"result": {"category": "spot", "list": [
				{"symbol": "BTCUSDT", "baseCoin": "BTC", "quoteCoin": "USDT", "status": "Trading"},
				{"symbol": "ETHUSDT", "baseCoin": "ETH", "quoteCoin": "USDT", "status": "Trading"},
				{"symbol": "LUNAUSDT", "baseCoin": "LUNA", "quoteCoin": "USDT", "status": "Closed"}
			]},
			"time": 1700000000000
		}`))
	})
	mux.HandleFunc("/v5/market/orderbook", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			w.Write([]byte(`{"retCode": 10001, "retMsg": "params error", "result": {}, "time": 1}`))
			return
		}
		w.Write([]byte(`{
			"retCode": 0, "retMsg": "OK",
			"result": {
				"s": "BTCUSDT",
				"b": [["10000.5", "1.5"], ["10000", "2"], ["oops", "1"]],
				"a": [["10001", "0.75"]],
				"ts": 1700000000000, "u": 42
			},
			"time": 1700000000000
		}`))
	})
	mux.HandleFunc("/v5/market/tickers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"retCode": 0, "retMsg": "OK",
			"result": {"category": "spot", "list": [
				{"symbol": "BTCUSDT", "bid1Price": "10000.5", "bid1Size": "1",
				 "ask1Price": "10001", "ask1Size": "2",
				 "lastPrice": "10000.7", "turnover24h": "123456.7"},
				{"symbol": "DELISTED", "bid1Price": "1", "bid1Size": "1",
				 "ask1Price": "2", "ask1Size": "1", "turnover24h": "9"}
			]},
			"time": 1700000000000
		}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewBybit(Config{Name: "bybit", Kind: KindBybit})
	client.baseURL = server.URL
	return client
}

func TestBybitLoadMarkets(t *testing.T) {
	client := newBybitServer(t)

	err := client.LoadMarkets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, client.Symbols())
}

func TestBybitFetchL2OrderBook(t *testing.T) {
	client := newBybitServer(t)
	require.NoError(t, client.LoadMarkets(context.Background()))

	ob, err := client.FetchL2OrderBook(context.Background(), "BTC/USDT")
	require.NoError(t, err)

	assert.Equal(t, "BTC/USDT", ob.Symbol)
	// The malformed bid row is dropped.
	require.Len(t, ob.Bids, 2)
	assert.Equal(t, 10000.5, ob.Bids[0].Price)
	assert.Equal(t, 1.5, ob.Bids[0].Quantity)
	require.Len(t, ob.Asks, 1)
	assert.Equal(t, 10001.0, ob.Asks[0].Price)

	_, err = client.FetchL2OrderBook(context.Background(), "DOGE/USDT")
	assert.Error(t, err)
}

func TestBybitRetCodeBecomesExchangeError(t *testing.T) {
	client := newBybitServer(t)
	require.NoError(t, client.LoadMarkets(context.Background()))

	// ETHUSDT trips the handler's params-error branch.
	_, err := client.FetchL2OrderBook(context.Background(), "ETH/USDT")
	require.Error(t, err)
	require.True(t, types.IsExchangeError(err))

	var ee *types.ExchangeError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "bybit", ee.Venue)
	assert.Equal(t, 10001, ee.Code)
}

func TestBybitFetchTickers(t *testing.T) {
	client := newBybitServer(t)
	require.NoError(t, client.LoadMarkets(context.Background()))

	tickers, err := client.FetchTickers(context.Background())
	require.NoError(t, err)

	// The symbol missing from instruments-info is dropped.
	require.Len(t, tickers, 1)
	ticker := tickers["BTC/USDT"]
	assert.Equal(t, 10000.5, ticker.Bid)
	assert.Equal(t, 10001.0, ticker.Ask)
	assert.Equal(t, 123456.7, ticker.QuoteVolume)
}

func TestParseLevels(t *testing.T) {
	levels := parseLevels([][]string{
		{"100", "2"},
		{"99.5"},
		{"", "3"},
		{"98", "x"},
		{"97.25", "0.5"},
	})

	assert.Equal(t, []types.PriceLevel{
		{Price: 100, Quantity: 2},
		{Price: 97.25, Quantity: 0.5},
	}, levels)
}
