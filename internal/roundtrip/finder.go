package roundtrip

import (
	"sort"

	"github.com/mExArb/sharpshooter/internal/rates"
	"github.com/mExArb/sharpshooter/pkg/types"
)

// DefaultMaxDepth bounds chains to four trades unless the request says
// otherwise.
const DefaultMaxDepth = 4

// Request scopes one roundtrip search.
type Request struct {
	// Currency is the start and end of every chain.
	Currency string

	// Amount is the starting volume in Currency.
	Amount float64

	// Venues restricts the search to these venue names. Empty means all.
	Venues []string

	// Coins restricts destination currencies. Empty means all. A whitelist
	// must include the start currency, or no chain can close.
	Coins []string

	// MaxDepth bounds the number of trades per chain. Zero takes the
	// default.
	MaxDepth int
}

// Find enumerates profitable-or-not roundtrip chains over a rates snapshot
// with a bounded depth-first search. A chain never repeats a conversion
// direction or its inverse, so it cannot bounce on one market or orbit a
// cycle twice. Each hop fills against real book depth; a book too thin for
// the amount in flight prunes that branch.
//
// Chains come back sorted by compounded profitability descending, ties by
// venue count ascending. The search only reads the snapshot; it performs no
// I/O and is deterministic for a given snapshot.
func Find(snap rates.Snapshot, req Request) []types.Chain {
	if req.Currency == "" || req.Amount <= 0 {
		return nil
	}
	depth := req.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}

	f := &finder{
		snap:   snap,
		syn:    snap.Synonyms(),
		target: req.Currency,
		used:   make(map[types.TradeKey]struct{}),
		edges:  make(map[edgeKey][]rates.Edge),
	}
	f.venues = filterVenues(snap.Venues(), req.Venues)
	if len(req.Coins) > 0 {
		f.coins = make(map[string]bool, len(req.Coins))
		for _, coin := range req.Coins {
			f.coins[coin] = true
		}
	}

	f.search(req.Currency, req.Amount, depth, nil)
	sortChains(f.found)
	return f.found
}

type edgeKey struct {
	venue    string
	currency string
}

type finder struct {
	snap   rates.Snapshot
	syn    *types.SynonymTable
	target string
	venues []string
	coins  map[string]bool
	used   map[types.TradeKey]struct{}
	edges  map[edgeKey][]rates.Edge
	found  []types.Chain
}

func (f *finder) search(currency string, amount float64, depth int, chain types.Chain) {
	if len(chain) > 0 && f.syn.Equivalent(currency, f.target) {
		f.found = append(f.found, append(types.Chain(nil), chain...))
		return
	}
	if depth == 0 {
		return
	}

	for _, venue := range f.venues {
		for _, edge := range f.outgoing(venue, currency) {
			if f.coins != nil && !f.coins[edge.To] {
				continue
			}
			key := types.TradeKey{Exchange: venue, From: currency, To: edge.To}
			inv := types.TradeKey{Exchange: venue, From: edge.To, To: currency}
			if _, dup := f.used[key]; dup {
				continue
			}
			if _, dup := f.used[inv]; dup {
				continue
			}
			fill, ok := edge.Book.Fill(amount)
			if !ok {
				continue
			}
			trade := types.Trade{
				Exchange: venue,
				From:     currency,
				To:       edge.To,
				Amount:   fill.Output,
				Limit:    fill.Limit,
				Value:    fill.AvgRate,
			}

			f.used[key] = struct{}{}
			f.search(edge.To, fill.Output, depth-1, append(chain, trade))
			delete(f.used, key)
		}
	}
}

// outgoing memoizes snapshot adjacency; the search revisits currencies many
// times along different paths.
func (f *finder) outgoing(venue, currency string) []rates.Edge {
	key := edgeKey{venue: venue, currency: currency}
	if edges, ok := f.edges[key]; ok {
		return edges
	}
	edges := f.snap.Outgoing(venue, currency)
	f.edges[key] = edges
	return edges
}

func filterVenues(all []string, wanted []string) []string {
	if len(wanted) == 0 {
		return all
	}
	allowed := make(map[string]bool, len(wanted))
	for _, venue := range wanted {
		allowed[venue] = true
	}
	venues := make([]string, 0, len(wanted))
	for _, venue := range all {
		if allowed[venue] {
			venues = append(venues, venue)
		}
	}
	return venues
}

func sortChains(chains []types.Chain) {
	sort.SliceStable(chains, func(i, j int) bool {
		pi, pj := chains[i].Profitability(), chains[j].Profitability()
		if pi != pj {
			return pi > pj
		}
		ei, ej := chains[i].Exchanges(), chains[j].Exchanges()
		if ei != ej {
			return ei < ej
		}
		return chains[i].String() < chains[j].String()
	})
}
