package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mExArb/sharpshooter/pkg/types"
)

const (
	bybitBaseURL        = "https://api.bybit.com"
	bybitTestnetBaseURL = "https://api-testnet.bybit.com"

	bybitCategorySpot = "spot"

	bybitDefaultDepth   = 50
	bybitMaxDepth       = 200
	bybitDefaultTimeout = 10 * time.Second
)

// Bybit serves market data from the v5 REST API. Only public endpoints are
// needed, so requests are unsigned.
type Bybit struct {
	name       string
	baseURL    string
	httpClient *http.Client
	markets    *marketTable
	depth      int
}

func NewBybit(cfg Config) *Bybit {
	baseURL := bybitBaseURL
	if cfg.Testnet {
		baseURL = bybitTestnetBaseURL
	}
	if cfg.Depth <= 0 {
		cfg.Depth = bybitDefaultDepth
	}
	if cfg.Depth > bybitMaxDepth {
		cfg.Depth = bybitMaxDepth
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = bybitDefaultTimeout
	}

	return &Bybit{
		name:       cfg.Name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		markets:    newMarketTable(),
		depth:      cfg.Depth,
	}
}

func (b *Bybit) Name() string {
	return b.name
}

func (b *Bybit) Has() types.Capabilities {
	return types.Capabilities{FetchTickers: true}
}

func (b *Bybit) Symbols() []string {
	return b.markets.symbols()
}

// bybitResponse is the v5 envelope every endpoint replies with. A non-zero
// retCode is a venue-reported failure even when the HTTP status is 200.
type bybitResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

func (b *Bybit) publicGet(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	fullURL := b.baseURL + "/v5" + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: GET %s: status %d", b.name, endpoint, resp.StatusCode)
	}

	var envelope bybitResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if envelope.RetCode != 0 {
		return &types.ExchangeError{Venue: b.name, Code: envelope.RetCode, Msg: envelope.RetMsg}
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
	}
	return nil
}

type bybitInstrument struct {
	Symbol    string `json:"symbol"`
	BaseCoin  string `json:"baseCoin"`
	QuoteCoin string `json:"quoteCoin"`
	Status    string `json:"status"`
}

func (b *Bybit) LoadMarkets(ctx context.Context) error {
	params := url.Values{}
	params.Set("category", bybitCategorySpot)
	params.Set("limit", "1000")

	var result struct {
		List []bybitInstrument `json:"list"`
	}
	if err := b.publicGet(ctx, "/market/instruments-info", params, &result); err != nil {
		return err
	}

	markets := make(map[string]string, len(result.List))
	for _, inst := range result.List {
		if inst.Status != "Trading" {
			continue
		}
		markets[types.JoinSymbol(inst.BaseCoin, inst.QuoteCoin)] = inst.Symbol
	}

	b.markets.replace(markets)
	return nil
}

func (b *Bybit) FetchL2OrderBook(ctx context.Context, symbol string) (*types.OrderBook, error) {
	native, ok := b.markets.native(symbol)
	if !ok {
		return nil, fmt.Errorf("%s: unknown symbol %s", b.name, symbol)
	}

	params := url.Values{}
	params.Set("category", bybitCategorySpot)
	params.Set("symbol", native)
	params.Set("limit", strconv.Itoa(b.depth))

	var result struct {
		Symbol string     `json:"s"`
		Bids   [][]string `json:"b"`
		Asks   [][]string `json:"a"`
		Ts     int64      `json:"ts"`
	}
	if err := b.publicGet(ctx, "/market/orderbook", params, &result); err != nil {
		return nil, err
	}

	return &types.OrderBook{
		Symbol:     symbol,
		Bids:       parseLevels(result.Bids),
		Asks:       parseLevels(result.Asks),
		UpdateTime: time.Unix(0, result.Ts*int64(time.Millisecond)),
	}, nil
}

type bybitTicker struct {
	Symbol      string `json:"symbol"`
	Bid1Price   string `json:"bid1Price"`
	Bid1Size    string `json:"bid1Size"`
	Ask1Price   string `json:"ask1Price"`
	Ask1Size    string `json:"ask1Size"`
	Turnover24h string `json:"turnover24h"`
}

func (b *Bybit) FetchTickers(ctx context.Context) (map[string]types.Ticker, error) {
	params := url.Values{}
	params.Set("category", bybitCategorySpot)

	var result struct {
		List []bybitTicker `json:"list"`
	}
	if err := b.publicGet(ctx, "/market/tickers", params, &result); err != nil {
		return nil, err
	}

	tickers := make(map[string]types.Ticker, len(result.List))
	for _, t := range result.List {
		unified, ok := b.markets.unified(t.Symbol)
		if !ok {
			continue
		}
		tickers[unified] = types.Ticker{
			Symbol:      unified,
			Bid:         parseFloat64(t.Bid1Price),
			Ask:         parseFloat64(t.Ask1Price),
			QuoteVolume: parseFloat64(t.Turnover24h),
		}
	}
	return tickers, nil
}

// parseLevels converts v5 [price, quantity] string pairs, dropping rows
// that do not parse.
func parseLevels(levels [][]string) []types.PriceLevel {
	parsed := make([]types.PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		if len(lvl) < 2 {
			continue
		}
		price, err1 := strconv.ParseFloat(lvl[0], 64)
		qty, err2 := strconv.ParseFloat(lvl[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		parsed = append(parsed, types.PriceLevel{Price: price, Quantity: qty})
	}
	return parsed
}
