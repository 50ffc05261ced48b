package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// MockExchange is a scriptable in-memory venue. Tests use it to stage
// markets and failures; the factory exposes it as the "mock" kind so a full
// scan can run without network access.
type MockExchange struct {
	mu      sync.Mutex
	name    string
	symbols []string
	caps    types.Capabilities
	books   map[string]*types.OrderBook
	tickers map[string]types.Ticker

	loadErrs   []error
	tickerErrs []error
	bookErrs   map[string][]error

	loadCalls   int
	tickerCalls int
	bookCalls   int
}

func NewMockExchange(name string) *MockExchange {
	return &MockExchange{
		name:     name,
		caps:     types.Capabilities{FetchTickers: true},
		books:    make(map[string]*types.OrderBook),
		tickers:  make(map[string]types.Ticker),
		bookErrs: make(map[string][]error),
	}
}

// SetCapabilities overrides what the venue claims to support.
func (m *MockExchange) SetCapabilities(caps types.Capabilities) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caps = caps
}

// SetBook stages an order book and registers its symbol.
func (m *MockExchange) SetBook(symbol string, bids, asks []types.PriceLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[symbol] = &types.OrderBook{Symbol: symbol, Bids: bids, Asks: asks}
	m.addSymbol(symbol)
}

// SetTicker stages a ticker and registers its symbol.
func (m *MockExchange) SetTicker(ticker types.Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[ticker.Symbol] = ticker
	m.addSymbol(ticker.Symbol)
}

// SetSymbols replaces the symbol list, for staging symbols with no data.
func (m *MockExchange) SetSymbols(symbols ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols = append([]string(nil), symbols...)
}

// FailLoadMarkets queues errors returned by the next LoadMarkets calls.
func (m *MockExchange) FailLoadMarkets(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErrs = append(m.loadErrs, errs...)
}

// FailTickers queues errors returned by the next FetchTickers calls.
func (m *MockExchange) FailTickers(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickerErrs = append(m.tickerErrs, errs...)
}

// FailBook queues errors returned by the next fetches of one symbol's book.
func (m *MockExchange) FailBook(symbol string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookErrs[symbol] = append(m.bookErrs[symbol], errs...)
}

// LoadCalls counts LoadMarkets invocations.
func (m *MockExchange) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// TickerCalls counts FetchTickers invocations.
func (m *MockExchange) TickerCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickerCalls
}

// BookCalls counts FetchL2OrderBook invocations.
func (m *MockExchange) BookCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookCalls
}

func (m *MockExchange) Name() string {
	return m.name
}

func (m *MockExchange) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.symbols...)
}

func (m *MockExchange) Has() types.Capabilities {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.caps
}

func (m *MockExchange) LoadMarkets(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls++
	if len(m.loadErrs) > 0 {
		err := m.loadErrs[0]
		m.loadErrs = m.loadErrs[1:]
		return err
	}
	return nil
}

func (m *MockExchange) FetchL2OrderBook(ctx context.Context, symbol string) (*types.OrderBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookCalls++
	if errs := m.bookErrs[symbol]; len(errs) > 0 {
		err := errs[0]
		m.bookErrs[symbol] = errs[1:]
		return nil, err
	}
	ob, ok := m.books[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: no book for %s", m.name, symbol)
	}
	copied := *ob
	return &copied, nil
}

func (m *MockExchange) FetchTickers(ctx context.Context) (map[string]types.Ticker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickerCalls++
	if len(m.tickerErrs) > 0 {
		err := m.tickerErrs[0]
		m.tickerErrs = m.tickerErrs[1:]
		return nil, err
	}
	tickers := make(map[string]types.Ticker, len(m.tickers))
	for symbol, ticker := range m.tickers {
		tickers[symbol] = ticker
	}
	return tickers, nil
}

func (m *MockExchange) addSymbol(symbol string) {
	for _, s := range m.symbols {
		if s == symbol {
			return
		}
	}
	m.symbols = append(m.symbols, symbol)
}
