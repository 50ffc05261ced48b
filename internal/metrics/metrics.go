package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the detector's metrics on its own registry, so tests can
// run collectors side by side without default-registry collisions.
type Collector struct {
	registry *prometheus.Registry

	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
	SymbolsTracked  *prometheus.GaugeVec
	EdgesTracked    *prometheus.GaugeVec

	ScansTotal         prometheus.Counter
	ScanDuration       prometheus.Histogram
	OpportunitiesTotal *prometheus.CounterVec
	BestProfit         *prometheus.GaugeVec
}

// Refresh result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.RefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharpshooter",
			Subsystem: "rates",
			Name:      "refresh_total",
			Help:      "Rate table refreshes per venue and outcome",
		},
		[]string{"exchange", "result"},
	)

	c.RefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sharpshooter",
			Subsystem: "rates",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of one venue refresh",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"exchange"},
	)

	c.SymbolsTracked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharpshooter",
			Subsystem: "rates",
			Name:      "symbols_tracked",
			Help:      "Symbols ingested in the venue's current generation",
		},
		[]string{"exchange"},
	)

	c.EdgesTracked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharpshooter",
			Subsystem: "rates",
			Name:      "edges_tracked",
			Help:      "Directed conversion edges in the venue's current generation",
		},
		[]string{"exchange"},
	)

	c.ScansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sharpshooter",
			Subsystem: "scan",
			Name:      "total",
			Help:      "Roundtrip searches run",
		},
	)

	c.ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sharpshooter",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wall time of one roundtrip search",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	c.OpportunitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharpshooter",
			Subsystem: "scan",
			Name:      "opportunities_total",
			Help:      "Opportunities that cleared the profit threshold",
		},
		[]string{"currency"},
	)

	c.BestProfit = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharpshooter",
			Subsystem: "scan",
			Name:      "best_profit",
			Help:      "Best compounded profitability seen in the last scan",
		},
		[]string{"currency"},
	)

	c.registry.MustRegister(
		c.RefreshesTotal,
		c.RefreshDuration,
		c.SymbolsTracked,
		c.EdgesTracked,
		c.ScansTotal,
		c.ScanDuration,
		c.OpportunitiesTotal,
		c.BestProfit,
	)

	return c
}

// Registry exposes the collector's registry for serving.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRefresh records one venue refresh attempt.
func (c *Collector) RecordRefresh(exchange string, took time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.RefreshesTotal.WithLabelValues(exchange, result).Inc()
	c.RefreshDuration.WithLabelValues(exchange).Observe(took.Seconds())
}

// RecordGeneration records the size of a venue's freshly installed rates.
func (c *Collector) RecordGeneration(exchange string, symbols, edges int) {
	c.SymbolsTracked.WithLabelValues(exchange).Set(float64(symbols))
	c.EdgesTracked.WithLabelValues(exchange).Set(float64(edges))
}

// RecordScan records one roundtrip search.
func (c *Collector) RecordScan(took time.Duration) {
	c.ScansTotal.Inc()
	c.ScanDuration.Observe(took.Seconds())
}

// RecordOpportunity counts a reported opportunity.
func (c *Collector) RecordOpportunity(currency string) {
	c.OpportunitiesTotal.WithLabelValues(currency).Inc()
}

// RecordBest reports the best chain profitability the last scan saw,
// whether or not it cleared the threshold.
func (c *Collector) RecordBest(currency string, profit float64) {
	c.BestProfit.WithLabelValues(currency).Set(profit)
}
