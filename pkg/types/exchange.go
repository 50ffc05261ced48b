package types

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Capabilities describes what a venue can serve cheaply.
type Capabilities struct {
	// FetchTickers means the venue serves a whole-market ticker snapshot in
	// a single call.
	FetchTickers bool
	// FetchOrderBooks means whole-market order books are cheap enough to
	// prefer over tickers regardless of market size.
	FetchOrderBooks bool
}

// Ticker is a top-of-book summary for one symbol. QuoteVolume <= 0 means
// the venue did not report one.
type Ticker struct {
	Symbol      string  `json:"symbol"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	QuoteVolume float64 `json:"quote_volume"`
}

// ExchangeClient is the capability surface the detector needs from a venue.
// Implementations translate venue-native symbols to the unified BASE/QUOTE
// form at this boundary and classify their failures with ErrTimeout and
// ExchangeError.
type ExchangeClient interface {
	Name() string

	// Symbols lists unified symbols. Valid after LoadMarkets.
	Symbols() []string

	Has() Capabilities

	// LoadMarkets discovers or refreshes the venue's tradable markets.
	LoadMarkets(ctx context.Context) error

	FetchL2OrderBook(ctx context.Context, symbol string) (*OrderBook, error)

	// FetchTickers returns the whole market keyed by unified symbol.
	FetchTickers(ctx context.Context) (map[string]Ticker, error)
}

// ErrTimeout marks a venue request that exceeded its deadline. Callers retry
// these; other failures propagate.
var ErrTimeout = errors.New("exchange request timed out")

// IsTimeout reports whether err is a retryable timeout of any flavor.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// ExchangeError is a failure the venue itself reported, e.g. a non-zero
// status code in an otherwise well-formed response.
type ExchangeError struct {
	Venue string
	Code  int
	Msg   string
}

func (e *ExchangeError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: exchange error %d: %s", e.Venue, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: exchange error: %s", e.Venue, e.Msg)
}

// IsExchangeError reports whether err carries a venue-reported failure.
func IsExchangeError(err error) bool {
	var ee *ExchangeError
	return errors.As(err, &ee)
}
