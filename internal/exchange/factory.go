package exchange

import (
	"fmt"
	"time"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// Adapter kinds the factory knows how to build.
const (
	KindBinance = "binance"
	KindBybit   = "bybit"
	KindMock    = "mock"
)

// Config holds one venue's connection settings.
type Config struct {
	// Name is how the venue appears in rates and opportunities. Defaults
	// to Kind.
	Name string

	// Kind selects the adapter.
	Kind string

	APIKey    string
	APISecret string
	Testnet   bool

	// Depth caps order book requests. Zero means the adapter's default.
	Depth int

	// Timeout bounds each REST call. Zero means the adapter's default.
	Timeout time.Duration
}

// New creates the client for a venue config.
func New(cfg Config) (types.ExchangeClient, error) {
	if cfg.Name == "" {
		cfg.Name = cfg.Kind
	}

	switch cfg.Kind {
	case KindBinance:
		return NewBinance(cfg), nil
	case KindBybit:
		return NewBybit(cfg), nil
	case KindMock:
		return NewMockExchange(cfg.Name), nil
	default:
		return nil, fmt.Errorf("unsupported exchange kind: %q", cfg.Kind)
	}
}
