package exchange

import (
	"sort"
	"strconv"
	"sync"
)

// marketTable maps between unified BASE/QUOTE symbols and the venue's
// native spelling. LoadMarkets replaces the mapping wholesale; lookups are
// safe while a replacement is in flight.
type marketTable struct {
	mu        sync.RWMutex
	byUnified map[string]string
	byNative  map[string]string
}

func newMarketTable() *marketTable {
	return &marketTable{
		byUnified: make(map[string]string),
		byNative:  make(map[string]string),
	}
}

func (t *marketTable) replace(unifiedToNative map[string]string) {
	byUnified := make(map[string]string, len(unifiedToNative))
	byNative := make(map[string]string, len(unifiedToNative))
	for unified, native := range unifiedToNative {
		byUnified[unified] = native
		byNative[native] = unified
	}

	t.mu.Lock()
	t.byUnified = byUnified
	t.byNative = byNative
	t.mu.Unlock()
}

func (t *marketTable) native(unified string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	native, ok := t.byUnified[unified]
	return native, ok
}

func (t *marketTable) unified(native string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	unified, ok := t.byNative[native]
	return unified, ok
}

func (t *marketTable) symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	symbols := make([]string, 0, len(t.byUnified))
	for unified := range t.byUnified {
		symbols = append(symbols, unified)
	}
	sort.Strings(symbols)
	return symbols
}

// parseFloat64 safely parses string to float64.
func parseFloat64(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
