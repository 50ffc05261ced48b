package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mExArb/sharpshooter/internal/config"
	"github.com/mExArb/sharpshooter/internal/exchange"
	"github.com/mExArb/sharpshooter/internal/metrics"
	"github.com/mExArb/sharpshooter/internal/publish"
	"github.com/mExArb/sharpshooter/internal/rates"
	"github.com/mExArb/sharpshooter/internal/roundtrip"
	"github.com/mExArb/sharpshooter/pkg/types"
)

// Scanner drives detection: it keeps venue rates fresh, enumerates
// roundtrips from the configured start position, and reports every chain
// that clears the profit threshold.
type Scanner struct {
	cfg       *config.Config
	table     *rates.Table
	venues    *exchange.Manager
	sinks     []publish.Sink
	coins     []string
	fees      *types.FeeSchedule
	collector *metrics.Collector
	logger    *logrus.Entry

	ctx      context.Context
	cancel   context.CancelFunc
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New wires a scanner from validated configuration. The scanner owns the
// rate table and the sinks; Stop releases both.
func New(cfg *config.Config, clients []types.ExchangeClient, sinks []publish.Sink, collector *metrics.Collector) (*Scanner, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("no exchange clients configured")
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}

	venues := exchange.NewManager()
	for _, client := range clients {
		if err := venues.Add(client); err != nil {
			return nil, err
		}
	}

	synonyms, err := types.NewSynonymTable(cfg.Synonyms)
	if err != nil {
		return nil, fmt.Errorf("failed to build synonym table: %w", err)
	}

	table := rates.New(synonyms, rates.Options{
		Blacklist:  cfg.Blacklist,
		MaxRetries: cfg.Refresh.MaxRetries,
		Workers:    cfg.Refresh.Workers,
	})

	var fees *types.FeeSchedule
	if len(cfg.Scan.Fees) > 0 {
		fees = types.NewFeeSchedule(cfg.Scan.Fees, 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scanner{
		cfg:       cfg,
		table:     table,
		venues:    venues,
		sinks:     sinks,
		coins:     scanCoins(cfg.Scan.Coins, cfg.Start.Currency, synonyms),
		fees:      fees,
		collector: collector,
		logger:    logrus.WithField("component", "scanner"),
		ctx:       ctx,
		cancel:    cancel,
		stopCh:    make(chan struct{}),
	}, nil
}

// Table exposes the scanner's rate table for direct inspection.
func (s *Scanner) Table() *rates.Table {
	return s.table
}

// RunOnce refreshes every venue, scans, and returns the opportunities that
// cleared the threshold, best first. A venue that fails to refresh is
// logged and left out; RunOnce errors only when the table stays empty.
func (s *Scanner) RunOnce(ctx context.Context) ([]types.Opportunity, error) {
	refreshed := s.refreshAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if refreshed == 0 && s.tableEmpty() {
		return nil, fmt.Errorf("every venue refresh failed")
	}
	return s.scan(), nil
}

// Start launches the per-venue refresh loops and the scan loop.
func (s *Scanner) Start() {
	for _, client := range s.venues.All() {
		s.wg.Add(1)
		go s.refreshLoop(client)
	}
	s.wg.Add(1)
	go s.scanLoop()

	s.logger.WithFields(logrus.Fields{
		"venues":           s.venues.Names(),
		"currency":         s.cfg.Start.Currency,
		"amount":           s.cfg.Start.Amount,
		"threshold":        s.cfg.Scan.Threshold,
		"scan_interval":    s.cfg.Scan.Interval,
		"refresh_interval": s.cfg.Refresh.Interval,
	}).Info("scanner started")
}

// Stop ends the loops, waits for them, and releases the table and sinks.
// Safe to call more than once and without a prior Start.
func (s *Scanner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.cancel()
		s.wg.Wait()
		s.table.Close()
		for _, sink := range s.sinks {
			if err := sink.Close(); err != nil {
				s.logger.WithError(err).Warn("failed to close sink")
			}
		}
		s.logger.Info("scanner stopped")
	})
}

func (s *Scanner) refreshLoop(client types.ExchangeClient) {
	defer s.wg.Done()

	// Prime the table before the first tick.
	s.refreshVenue(s.ctx, client)

	ticker := time.NewTicker(s.cfg.Refresh.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.refreshVenue(s.ctx, client)
		}
	}
}

func (s *Scanner) scanLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Scan.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.emit(s.ctx, s.scan())
		}
	}
}

// refreshAll populates every venue in parallel and reports how many
// succeeded.
func (s *Scanner) refreshAll(ctx context.Context) int {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, client := range s.venues.All() {
		wg.Add(1)
		go func(client types.ExchangeClient) {
			defer wg.Done()
			if err := s.refreshVenue(ctx, client); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(client)
	}
	wg.Wait()
	return ok
}

func (s *Scanner) refreshVenue(ctx context.Context, client types.ExchangeClient) error {
	start := time.Now()
	err := s.table.Populate(ctx, client)
	s.collector.RecordRefresh(client.Name(), time.Since(start), err)
	if err != nil {
		s.logger.WithError(err).WithField("exchange", client.Name()).Warn("venue refresh failed")
		return err
	}

	pairs := s.table.Pairs()[client.Name()]
	s.collector.RecordGeneration(client.Name(), len(pairs)/2, len(pairs))
	s.logger.WithFields(logrus.Fields{
		"exchange": client.Name(),
		"pairs":    len(pairs),
		"took":     time.Since(start),
	}).Debug("venue refreshed")
	return nil
}

// scan enumerates roundtrips on the current snapshot and keeps the chains
// clearing the threshold, best first.
func (s *Scanner) scan() []types.Opportunity {
	snap := s.table.Snapshot()

	start := time.Now()
	chains := roundtrip.Find(snap, roundtrip.Request{
		Currency: s.cfg.Start.Currency,
		Amount:   s.cfg.Start.Amount,
		Venues:   s.cfg.Scan.Venues,
		Coins:    s.coins,
		MaxDepth: s.cfg.Scan.MaxDepth,
	})
	s.collector.RecordScan(time.Since(start))

	best := 0.0
	if len(chains) > 0 {
		best = chains[0].Profitability()
	}
	s.collector.RecordBest(s.cfg.Start.Currency, best)

	now := time.Now()
	var opps []types.Opportunity
	for _, chain := range chains {
		profit := chain.Profitability()
		if profit < s.cfg.Scan.Threshold {
			// Chains come back best first.
			break
		}

		s.collector.RecordOpportunity(chain.Start())
		if s.fees != nil {
			s.logger.WithFields(logrus.Fields{
				"chain":  chain.String(),
				"profit": fmt.Sprintf("%.8f", profit),
				"net":    s.fees.AdjustedProfit(chain).StringFixed(8),
			}).Info("fee-adjusted profitability")
		}

		opps = append(opps, types.Opportunity{
			ID:         uuid.NewString(),
			Chain:      chain,
			Profit:     profit,
			DetectedAt: now,
		})
	}
	return opps
}

// emit fans opportunities out to every sink. Failures are logged and do not
// stop the loop.
func (s *Scanner) emit(ctx context.Context, opps []types.Opportunity) {
	for _, opp := range opps {
		for _, sink := range s.sinks {
			if err := sink.Publish(ctx, opp); err != nil {
				s.logger.WithError(err).Warn("failed to publish opportunity")
			}
		}
	}
}

func (s *Scanner) tableEmpty() bool {
	for _, pairs := range s.table.Pairs() {
		if len(pairs) > 0 {
			return false
		}
	}
	return true
}

// scanCoins copies the configured whitelist and adds the start currency and
// its synonym. The whitelist applies to every hop, so a list that omits the
// way home would close no chains at all.
func scanCoins(coins []string, start string, synonyms *types.SynonymTable) []string {
	if len(coins) == 0 {
		return nil
	}
	out := append([]string(nil), coins...)
	want := []string{start}
	if syn, ok := synonyms.Synonym(start); ok {
		want = append(want, syn)
	}
	for _, code := range want {
		seen := false
		for _, c := range out {
			if c == code {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, code)
		}
	}
	return out
}
