package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"github.com/mExArb/sharpshooter/pkg/cache"
	"github.com/mExArb/sharpshooter/pkg/types"
)

const (
	binanceTestnetURL = "https://testnet.binance.vision"

	// Weight budget of the public REST API per minute.
	binanceWeightLimit = 1200

	binanceMarketsKey = "exchange_info"
	binanceMarketsTTL = time.Hour

	binanceDefaultDepth   = 100
	binanceDefaultTimeout = 10 * time.Second
)

// Binance serves market data through the official REST API. Market listings
// are cached for an hour; every request passes the shared weight limiter
// first so a refresh over many symbols cannot exhaust the API budget.
type Binance struct {
	name    string
	client  *binance.Client
	cache   *cache.MemoryCache
	limiter *cache.RateLimiter
	markets *marketTable
	depth   int
	timeout time.Duration
}

func NewBinance(cfg Config) *Binance {
	client := binance.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.Testnet {
		client.BaseURL = binanceTestnetURL
	}
	if cfg.Depth <= 0 {
		cfg.Depth = binanceDefaultDepth
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = binanceDefaultTimeout
	}

	return &Binance{
		name:    cfg.Name,
		client:  client,
		cache:   cache.NewMemoryCache(),
		limiter: cache.NewRateLimiter(binanceWeightLimit, time.Minute),
		markets: newMarketTable(),
		depth:   cfg.Depth,
		timeout: cfg.Timeout,
	}
}

func (b *Binance) Name() string {
	return b.name
}

func (b *Binance) Has() types.Capabilities {
	return types.Capabilities{FetchTickers: true}
}

func (b *Binance) Symbols() []string {
	return b.markets.symbols()
}

// LoadMarkets pulls exchange info and indexes the symbols open for trading.
// The listing is cached, so repeated calls inside the TTL do not spend
// request weight.
func (b *Binance) LoadMarkets(ctx context.Context) error {
	if cached, ok := b.cache.Get(binanceMarketsKey); ok {
		b.markets.replace(cached.(map[string]string))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.limiter.Wait(ctx, "exchange_info"); err != nil {
		return err
	}
	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return b.wrap(err)
	}

	markets := make(map[string]string, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		markets[types.JoinSymbol(s.BaseAsset, s.QuoteAsset)] = s.Symbol
	}

	b.markets.replace(markets)
	b.cache.Set(binanceMarketsKey, markets, binanceMarketsTTL)
	return nil
}

func (b *Binance) FetchL2OrderBook(ctx context.Context, symbol string) (*types.OrderBook, error) {
	native, ok := b.markets.native(symbol)
	if !ok {
		return nil, fmt.Errorf("%s: unknown symbol %s", b.name, symbol)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.limiter.Wait(ctx, "depth"); err != nil {
		return nil, err
	}
	depth, err := b.client.NewDepthService().Symbol(native).Limit(b.depth).Do(ctx)
	if err != nil {
		return nil, b.wrap(err)
	}

	ob := &types.OrderBook{
		Symbol:     symbol,
		Bids:       make([]types.PriceLevel, 0, len(depth.Bids)),
		Asks:       make([]types.PriceLevel, 0, len(depth.Asks)),
		UpdateTime: time.Now(),
	}
	for _, lvl := range depth.Bids {
		ob.Bids = append(ob.Bids, types.PriceLevel{
			Price:    parseFloat64(lvl.Price),
			Quantity: parseFloat64(lvl.Quantity),
		})
	}
	for _, lvl := range depth.Asks {
		ob.Asks = append(ob.Asks, types.PriceLevel{
			Price:    parseFloat64(lvl.Price),
			Quantity: parseFloat64(lvl.Quantity),
		})
	}
	return ob, nil
}

func (b *Binance) FetchTickers(ctx context.Context) (map[string]types.Ticker, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.limiter.Wait(ctx, "book_ticker"); err != nil {
		return nil, err
	}
	books, err := b.client.NewListBookTickersService().Do(ctx)
	if err != nil {
		return nil, b.wrap(err)
	}
	volumes := b.quoteVolumes(ctx)

	tickers := make(map[string]types.Ticker, len(books))
	for _, bt := range books {
		unified, ok := b.markets.unified(bt.Symbol)
		if !ok {
			continue
		}
		tickers[unified] = types.Ticker{
			Symbol:      unified,
			Bid:         parseFloat64(bt.BidPrice),
			Ask:         parseFloat64(bt.AskPrice),
			QuoteVolume: volumes[bt.Symbol],
		}
	}
	return tickers, nil
}

// quoteVolumes fetches 24h quote turnover per native symbol. Book tickers
// carry no depth, so turnover is the only liquidity hint in that mode;
// when the call fails volumes stay unknown rather than failing the refresh.
func (b *Binance) quoteVolumes(ctx context.Context) map[string]float64 {
	if err := b.limiter.Wait(ctx, "ticker_24h"); err != nil {
		return nil
	}
	stats, err := b.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil
	}

	volumes := make(map[string]float64, len(stats))
	for _, s := range stats {
		volumes[s.Symbol] = parseFloat64(s.QuoteVolume)
	}
	return volumes
}

func (b *Binance) wrap(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return &types.ExchangeError{Venue: b.name, Code: int(apiErr.Code), Msg: apiErr.Message}
	}
	return err
}
