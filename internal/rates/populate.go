package rates

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// Populate refreshes one venue's rates from its client. The refresh builds a
// complete replacement off to the side and installs it in one step, so
// concurrent readers never see a half-built generation.
//
// Timeouts retry up to MaxRetries. A venue-reported error aborts the refresh
// and keeps the previous generation. A failure on a single symbol's book is
// logged and that symbol skipped.
func (t *Table) Populate(ctx context.Context, client types.ExchangeClient) error {
	venue := client.Name()
	logger := t.logger.WithField("exchange", venue)

	if !t.hasVenue(venue) {
		t.registerVenue(venue)
		if err := t.loadMarkets(ctx, client); err != nil {
			return fmt.Errorf("load markets for %s: %w", venue, err)
		}
	}

	symbols := t.filterSymbols(client.Symbols())
	caps := client.Has()
	bookMode := !caps.FetchTickers || len(symbols) <= t.bookModeLimit || caps.FetchOrderBooks

	var books map[string]*types.OrderBook
	err := t.withRetry(ctx, func() error {
		var err error
		if bookMode {
			books, err = t.fetchBooks(ctx, client, symbols, logger)
		} else {
			books, err = t.fetchTickerBooks(ctx, client, symbols)
		}
		return err
	})
	if err != nil {
		if types.IsExchangeError(err) {
			logger.Errorf("refresh aborted: %v", err)
		}
		return fmt.Errorf("refresh %s: %w", venue, err)
	}

	t.replaceVenue(venue, buildVenueRates(books))
	logger.Debugf("installed %d symbols (book mode: %v)", len(books), bookMode)
	return nil
}

// loadMarkets discovers the venue's markets, retrying timeouts.
func (t *Table) loadMarkets(ctx context.Context, client types.ExchangeClient) error {
	return t.withRetry(ctx, func() error {
		return client.LoadMarkets(ctx)
	})
}

// withRetry runs op up to MaxRetries times, retrying only timeouts.
func (t *Table) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < t.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = op(); err == nil {
			return nil
		}
		if !types.IsTimeout(err) {
			return err
		}
	}
	return err
}

// filterSymbols keeps well-formed symbols with no blacklisted side, sorted.
func (t *Table) filterSymbols(symbols []string) []string {
	kept := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		base, quote, ok := types.SplitSymbol(symbol)
		if !ok {
			continue
		}
		if t.blacklist[base] || t.blacklist[quote] {
			continue
		}
		kept = append(kept, symbol)
	}
	sort.Strings(kept)
	return kept
}

// fetchBooks fans per-symbol order book fetches out on the worker pool. A
// failed symbol is skipped; a venue-reported error aborts the whole fetch.
// When every symbol timed out the fetch counts as one venue timeout so the
// caller's retry loop can take it.
func (t *Table) fetchBooks(ctx context.Context, client types.ExchangeClient, symbols []string, logger *logrus.Entry) (map[string]*types.OrderBook, error) {
	results := make([]*types.OrderBook, len(symbols))
	errs := make([]error, len(symbols))

	t.pool.Gather(len(symbols), func(i int) {
		ob, err := client.FetchL2OrderBook(ctx, symbols[i])
		if err != nil {
			errs[i] = err
			return
		}
		results[i] = ob
	})

	books := make(map[string]*types.OrderBook, len(symbols))
	timeouts := 0
	for i, symbol := range symbols {
		if err := errs[i]; err != nil {
			if types.IsExchangeError(err) {
				return nil, err
			}
			if types.IsTimeout(err) {
				timeouts++
			}
			logger.Warnf("skipping %s: %v", symbol, err)
			continue
		}
		if results[i] != nil {
			books[symbol] = results[i]
		}
	}

	if len(symbols) > 0 && timeouts == len(symbols) {
		return nil, fmt.Errorf("all %d book fetches timed out: %w", len(symbols), types.ErrTimeout)
	}
	return books, nil
}

// fetchTickerBooks loads the whole market's tickers in one call and
// synthesizes one-level books. Partial tickers are dropped; a missing quote
// volume becomes an infinite level, which never prunes a fill.
func (t *Table) fetchTickerBooks(ctx context.Context, client types.ExchangeClient, symbols []string) (map[string]*types.OrderBook, error) {
	tickers, err := client.FetchTickers(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	books := make(map[string]*types.OrderBook, len(symbols))
	for _, symbol := range symbols {
		ticker, ok := tickers[symbol]
		if !ok {
			continue
		}
		if ticker.Bid <= 0 || ticker.Ask <= 0 {
			continue
		}
		volume := ticker.QuoteVolume
		if volume <= 0 {
			volume = math.Inf(1)
		}
		books[symbol] = &types.OrderBook{
			Symbol:     symbol,
			Bids:       []types.PriceLevel{{Price: ticker.Bid, Quantity: volume}},
			Asks:       []types.PriceLevel{{Price: ticker.Ask, Quantity: volume}},
			UpdateTime: now,
		}
	}
	return books, nil
}

// buildVenueRates converts raw order books into the venue's directed graph.
// A symbol needs at least one bid and one ask; each direction is installed
// only when its converted book is non-empty.
func buildVenueRates(books map[string]*types.OrderBook) VenueRates {
	rates := VenueRates{}
	for symbol, ob := range books {
		base, quote, ok := types.SplitSymbol(symbol)
		if !ok {
			continue
		}
		if len(ob.Bids) == 0 || len(ob.Asks) == 0 {
			continue
		}
		if sell := types.SellSide(ob.Bids); len(sell) > 0 {
			insertRate(rates, base, quote, sell)
		}
		if buy := types.BuySide(ob.Asks); len(buy) > 0 {
			insertRate(rates, quote, base, buy)
		}
	}
	return rates
}

func insertRate(rates VenueRates, from, to string, book types.Book) {
	row, ok := rates[from]
	if !ok {
		row = make(map[string]types.Book)
		rates[from] = row
	}
	row[to] = book
}
