package publish

import (
	"context"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// Sink delivers detected opportunities to one destination. The scanner fans
// every opportunity out to all configured sinks; a failing sink is logged
// and never blocks detection.
type Sink interface {
	Publish(ctx context.Context, opp types.Opportunity) error
	Close() error
}
