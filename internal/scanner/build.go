package scanner

import (
	"fmt"
	"io"

	"github.com/mExArb/sharpshooter/internal/config"
	"github.com/mExArb/sharpshooter/internal/exchange"
	"github.com/mExArb/sharpshooter/internal/publish"
	natsclient "github.com/mExArb/sharpshooter/pkg/nats"
	"github.com/mExArb/sharpshooter/pkg/types"
)

// BuildClients constructs one exchange client per configured venue.
func BuildClients(cfg *config.Config) ([]types.ExchangeClient, error) {
	clients := make([]types.ExchangeClient, 0, len(cfg.Venues))
	for _, venue := range cfg.Venues {
		client, err := exchange.New(exchange.Config{
			Name:      venue.Name,
			Kind:      venue.Kind,
			APIKey:    venue.APIKey,
			APISecret: venue.APISecret,
			Testnet:   venue.Testnet,
			Depth:     cfg.Refresh.Depth,
			Timeout:   cfg.Refresh.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("venue %s: %w", venue.Name, err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// BuildSinks constructs the configured opportunity sinks. out receives one
// line per opportunity; nil disables console output.
func BuildSinks(cfg *config.Config, out io.Writer) ([]publish.Sink, error) {
	var sinks []publish.Sink
	if out != nil {
		sinks = append(sinks, publish.NewWriterSink(out))
	}

	if cfg.NATS.Enabled {
		client, err := natsclient.NewClient(natsclient.DefaultConfig(cfg.NATS.URL))
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("failed to connect nats sink: %w", err)
		}
		sinks = append(sinks, publish.NewNATSSink(client))
	}

	if cfg.Redis.Enabled {
		sink, err := publish.NewRedisSink(publish.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("failed to connect redis sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

func closeSinks(sinks []publish.Sink) {
	for _, sink := range sinks {
		sink.Close()
	}
}
