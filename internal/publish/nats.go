package publish

import (
	"context"

	natsclient "github.com/mExArb/sharpshooter/pkg/nats"
	"github.com/mExArb/sharpshooter/pkg/types"
)

// NATSSink publishes opportunities onto the ARBS JetStream stream, subject
// keyed by the chain's start currency so consumers can filter.
type NATSSink struct {
	client *natsclient.Client
}

func NewNATSSink(client *natsclient.Client) *NATSSink {
	return &NATSSink{client: client}
}

func (s *NATSSink) Publish(_ context.Context, opp types.Opportunity) error {
	return s.client.PublishOpportunity(opp.Chain.Start(), opp)
}

func (s *NATSSink) Close() error {
	s.client.Close()
	return nil
}
