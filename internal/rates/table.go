package rates

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mExArb/sharpshooter/pkg/types"
)

// VenueRates is one venue's directed conversion graph: from currency -> to
// currency -> book. A refresh installs a VenueRates wholesale and never
// mutates it afterwards.
type VenueRates map[string]map[string]types.Book

// Table holds the conversion books of every tracked venue. Writers replace a
// venue's rates in one step under the write lock; readers work on snapshots,
// so they observe complete generations only.
type Table struct {
	mu       sync.RWMutex
	venues   map[string]VenueRates
	synonyms *types.SynonymTable

	blacklist     map[string]bool
	maxRetries    int
	bookModeLimit int
	pool          *WorkerPool
	logger        *logrus.Entry
}

// Options tunes ingestion. Zero values take the defaults.
type Options struct {
	// Blacklist lists currency codes never ingested: ambiguous tickers and
	// fiat we do not route through.
	Blacklist []string

	// MaxRetries bounds attempts for timeout-prone venue calls. Default 5.
	MaxRetries int

	// Workers bounds concurrent order book fetches across all refreshes.
	// Default 64.
	Workers int

	// BookModeLimit is the market size up to which book mode is always
	// preferred over tickers. Default 10.
	BookModeLimit int
}

// New creates an empty table. Close releases its fetch workers.
func New(synonyms *types.SynonymTable, opts Options) *Table {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.Workers <= 0 {
		opts.Workers = 64
	}
	if opts.BookModeLimit <= 0 {
		opts.BookModeLimit = 10
	}

	blacklist := make(map[string]bool, len(opts.Blacklist))
	for _, code := range opts.Blacklist {
		blacklist[code] = true
	}

	pool := NewWorkerPool(opts.Workers)
	pool.Start()

	return &Table{
		venues:        make(map[string]VenueRates),
		synonyms:      synonyms,
		blacklist:     blacklist,
		maxRetries:    opts.MaxRetries,
		bookModeLimit: opts.BookModeLimit,
		pool:          pool,
		logger:        logrus.WithField("component", "rates"),
	}
}

// Close stops the fetch workers.
func (t *Table) Close() {
	t.pool.Stop()
}

// Synonyms returns the synonym table lookups resolve against.
func (t *Table) Synonyms() *types.SynonymTable {
	return t.synonyms
}

// Snapshot returns a point-in-time view. The inner maps are shared with the
// table but immutable once installed, so the snapshot is safe to read
// without locks while refreshes continue.
func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	venues := make(map[string]VenueRates, len(t.venues))
	for venue, rates := range t.venues {
		venues[venue] = rates
	}
	return Snapshot{venues: venues, synonyms: t.synonyms}
}

// Rate looks up the book for converting from -> to on a venue, consulting
// synonyms for both sides.
func (t *Table) Rate(venue, from, to string) (types.Book, bool) {
	return t.Snapshot().Rate(venue, from, to)
}

// Pairs lists, per venue, the outgoing edges as FROM/TO strings.
func (t *Table) Pairs() map[string][]string {
	return t.Snapshot().Pairs()
}

func (t *Table) hasVenue(venue string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.venues[venue]
	return ok
}

// registerVenue makes the venue visible with no rates yet.
func (t *Table) registerVenue(venue string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.venues[venue]; !ok {
		t.venues[venue] = VenueRates{}
	}
}

// replaceVenue installs a complete new generation for the venue.
func (t *Table) replaceVenue(venue string, rates VenueRates) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.venues[venue] = rates
}

// Snapshot is a point-in-time view of the table.
type Snapshot struct {
	venues   map[string]VenueRates
	synonyms *types.SynonymTable
}

// Synonyms returns the synonym table lookups resolve against.
func (s Snapshot) Synonyms() *types.SynonymTable {
	return s.synonyms
}

// Venues returns the venue names in sorted order.
func (s Snapshot) Venues() []string {
	venues := make([]string, 0, len(s.venues))
	for venue := range s.venues {
		venues = append(venues, venue)
	}
	sort.Strings(venues)
	return venues
}

// Rate looks up the book for converting from -> to on a venue. Both sides
// fall back to their synonym, direct codes first.
func (s Snapshot) Rate(venue, from, to string) (types.Book, bool) {
	rates, ok := s.venues[venue]
	if !ok {
		return nil, false
	}

	froms := s.withSynonym(from)
	tos := s.withSynonym(to)
	for _, f := range froms {
		row, ok := rates[f]
		if !ok {
			continue
		}
		for _, dst := range tos {
			if book, ok := row[dst]; ok {
				return book, true
			}
		}
	}
	return nil, false
}

// Edge is one outgoing conversion from a currency on a venue.
type Edge struct {
	To   string
	Book types.Book
}

// Outgoing returns the edges leaving currency on a venue, including those
// listed under the currency's synonym. A venue quoting the same destination
// under both naming forms contributes one edge per listing, direct form
// first; the books stay separate. Edges come back destination-sorted.
func (s Snapshot) Outgoing(venue, currency string) []Edge {
	rates, ok := s.venues[venue]
	if !ok {
		return nil
	}

	edges := make([]Edge, 0, len(rates[currency]))
	for to, book := range rates[currency] {
		edges = append(edges, Edge{To: to, Book: book})
	}
	if syn, ok := s.synonyms.Synonym(currency); ok {
		for to, book := range rates[syn] {
			edges = append(edges, Edge{To: to, Book: book})
		}
	}
	if len(edges) == 0 {
		return nil
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
	return edges
}

// Pairs lists, per venue, the outgoing edges as FROM/TO strings, sorted.
func (s Snapshot) Pairs() map[string][]string {
	pairs := make(map[string][]string, len(s.venues))
	for venue, rates := range s.venues {
		list := make([]string, 0, len(rates))
		for from, row := range rates {
			for to := range row {
				list = append(list, types.JoinSymbol(from, to))
			}
		}
		sort.Strings(list)
		pairs[venue] = list
	}
	return pairs
}

// Conversions lists, per source currency, the destinations reachable across
// all venues. Each destination appears once no matter how many venues serve
// the edge, sorted.
func (s Snapshot) Conversions() map[string][]string {
	seen := make(map[string]map[string]struct{})
	for _, rates := range s.venues {
		for from, row := range rates {
			dsts, ok := seen[from]
			if !ok {
				dsts = make(map[string]struct{}, len(row))
				seen[from] = dsts
			}
			for to := range row {
				dsts[to] = struct{}{}
			}
		}
	}

	conversions := make(map[string][]string, len(seen))
	for from, dsts := range seen {
		list := make([]string, 0, len(dsts))
		for to := range dsts {
			list = append(list, to)
		}
		sort.Strings(list)
		conversions[from] = list
	}
	return conversions
}

func (s Snapshot) withSynonym(code string) []string {
	if syn, ok := s.synonyms.Synonym(code); ok {
		return []string{code, syn}
	}
	return []string{code}
}
