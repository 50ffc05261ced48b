package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsAdapter(t *testing.T) {
	client, err := New(Config{Kind: KindMock, Name: "paper"})
	require.NoError(t, err)
	assert.Equal(t, "paper", client.Name())
	assert.IsType(t, &MockExchange{}, client)

	client, err = New(Config{Kind: KindBinance})
	require.NoError(t, err)
	assert.Equal(t, "binance", client.Name())
	assert.IsType(t, &Binance{}, client)

	client, err = New(Config{Kind: KindBybit, Name: "bybit-eu"})
	require.NoError(t, err)
	assert.Equal(t, "bybit-eu", client.Name())
	assert.IsType(t, &Bybit{}, client)
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New(Config{Kind: "kraken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported exchange kind")
}

func TestManager(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.Add(NewMockExchange("beta")))
	require.NoError(t, m.Add(NewMockExchange("alpha")))
	assert.Error(t, m.Add(NewMockExchange("alpha")), "duplicate names are rejected")

	assert.Equal(t, []string{"alpha", "beta"}, m.Names())

	client, ok := m.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", client.Name())

	all := m.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name())
	assert.Equal(t, "beta", all[1].Name())

	require.NoError(t, m.Remove("alpha"))
	assert.Error(t, m.Remove("alpha"))
	_, ok = m.Get("alpha")
	assert.False(t, ok)
}
