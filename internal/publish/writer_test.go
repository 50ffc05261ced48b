package publish

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mExArb/sharpshooter/pkg/types"
)

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	opp := types.Opportunity{
		Chain: types.Chain{
			{Exchange: "b", From: "USD", To: "BTC", Amount: 2, Limit: 0.0002, Value: 0.0002},
			{Exchange: "a", From: "BTC", To: "USD", Amount: 20000, Limit: 10000, Value: 10000},
		},
		Profit: 1,
	}

	require.NoError(t, sink.Publish(context.Background(), opp))
	require.NoError(t, sink.Publish(context.Background(), opp))
	require.NoError(t, sink.Close())

	want := opp.String() + "\n" + opp.String() + "\n"
	assert.Equal(t, want, buf.String())
	assert.Contains(t, buf.String(), "for 100% profit")
}
