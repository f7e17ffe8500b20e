package contracts

import "time"

// SymbolRecord is the minimal identity of a listed instrument
type SymbolRecord struct {
	Symbol      string `json:"symbol"`
	Type        string `json:"type,omitempty"` // e.g. "Common Stock", "ETP", "ADR"
	Description string `json:"description,omitempty"`
}

// Universe is the candidate set of a single scan, before filtering
// ⭐ SSOT: universe fetch → metric fetch hand-off
type Universe struct {
	FetchedAt  time.Time         `json:"fetched_at"`
	Symbols    []SymbolRecord    `json:"symbols"`
	Excluded   map[string]string `json:"excluded,omitempty"` // symbol: reason
	TotalCount int               `json:"total_count"`        // listing size before policy
}

// Contains checks if a symbol is in the universe
func (u *Universe) Contains(symbol string) bool {
	for _, rec := range u.Symbols {
		if rec.Symbol == symbol {
			return true
		}
	}
	return false
}

// IsExcluded reports whether a symbol was dropped by policy, and why
func (u *Universe) IsExcluded(symbol string) (bool, string) {
	reason, exists := u.Excluded[symbol]
	return exists, reason
}

// Count returns the number of candidate symbols
func (u *Universe) Count() int {
	return len(u.Symbols)
}

// Tickers returns the candidate symbols in listing order
func (u *Universe) Tickers() []string {
	out := make([]string, 0, len(u.Symbols))
	for _, rec := range u.Symbols {
		out = append(out, rec.Symbol)
	}
	return out
}
