package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector()

	c.RecordRefresh("binance", 120*time.Millisecond, nil)
	c.RecordRefresh("binance", 45*time.Millisecond, nil)
	c.RecordRefresh("bybit", time.Second, errors.New("boom"))
	c.RecordGeneration("binance", 12, 24)
	c.RecordScan(3 * time.Millisecond)
	c.RecordOpportunity("USD")
	c.RecordBest("USD", 0.031)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RefreshesTotal.WithLabelValues("binance", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RefreshesTotal.WithLabelValues("bybit", ResultError)))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.SymbolsTracked.WithLabelValues("binance")))
	assert.Equal(t, 24.0, testutil.ToFloat64(c.EdgesTracked.WithLabelValues("binance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ScansTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.OpportunitiesTotal.WithLabelValues("USD")))
	assert.Equal(t, 0.031, testutil.ToFloat64(c.BestProfit.WithLabelValues("USD")))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	a.RecordOpportunity("USD")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.OpportunitiesTotal.WithLabelValues("USD")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.OpportunitiesTotal.WithLabelValues("USD")))
}

func TestServerEndpoints(t *testing.T) {
	c := NewCollector()
	c.RecordOpportunity("BTC")
	server := NewServer("127.0.0.1:0", c)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := testutil.GatherAndCount(c.Registry(), "sharpshooter_scan_opportunities_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
