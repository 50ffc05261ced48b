package types

import "strings"

// SplitSymbol splits a unified "BASE/QUOTE" symbol. It returns ok=false
// unless the symbol has exactly one separator and both sides are non-empty.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	i := strings.IndexByte(symbol, '/')
	if i <= 0 || i == len(symbol)-1 || i != strings.LastIndexByte(symbol, '/') {
		return "", "", false
	}
	return symbol[:i], symbol[i+1:], true
}

// JoinSymbol builds the unified form from base and quote codes.
func JoinSymbol(base, quote string) string {
	return base + "/" + quote
}
