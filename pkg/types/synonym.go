package types

import "fmt"

// DefaultSynonyms are the currency codes commonly listed under a different
// name across venues.
func DefaultSynonyms() map[string]string {
	return map[string]string{
		"XBT": "BTC",
		"BCC": "BCH",
	}
}

// SynonymTable is a symmetric one-to-one relation between currency codes
// that name the same asset on different venues. Rate tables store codes as
// the venue reports them; the table resolves the other naming at lookup.
type SynonymTable struct {
	codes map[string]string
}

// NewSynonymTable builds the symmetric closure of pairs. A code mapping to
// itself or appearing in more than one pair is a conflict and fails
// construction.
func NewSynonymTable(pairs map[string]string) (*SynonymTable, error) {
	codes := make(map[string]string, len(pairs)*2)
	for a, b := range pairs {
		if a == b {
			return nil, fmt.Errorf("synonym %q maps to itself", a)
		}
		if _, dup := codes[a]; dup {
			return nil, fmt.Errorf("conflicting synonym mapping for %q", a)
		}
		if _, dup := codes[b]; dup {
			return nil, fmt.Errorf("conflicting synonym mapping for %q", b)
		}
		codes[a] = b
		codes[b] = a
	}
	return &SynonymTable{codes: codes}, nil
}

// Synonym returns the counterpart of code in either direction. A nil table
// has no synonyms.
func (s *SynonymTable) Synonym(code string) (string, bool) {
	if s == nil {
		return "", false
	}
	syn, ok := s.codes[code]
	return syn, ok
}

// Equivalent reports whether a and b name the same asset.
func (s *SynonymTable) Equivalent(a, b string) bool {
	if a == b {
		return true
	}
	if s == nil {
		return false
	}
	syn, ok := s.codes[a]
	return ok && syn == b
}
