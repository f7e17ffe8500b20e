package screener

import (
	"strings"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
)

// Exclusion reasons recorded on the universe
const (
	ExcludeType       = "type"
	ExcludeClassShare = "class_share"
	ExcludeNonAlpha   = "non_alpha"
	ExcludeCap        = "max_symbols"
)

const classShareSeparators = ".-/"

// ApplyPolicy filters raw listing records, preserving listing order
func ApplyPolicy(records []contracts.SymbolRecord, policy screenconfig.Universe) *contracts.Universe {
	allowed := make(map[string]bool, len(policy.AllowedTypes))
	for _, t := range policy.AllowedTypes {
		allowed[t] = true
	}

	u := &contracts.Universe{
		Symbols:    make([]contracts.SymbolRecord, 0, len(records)),
		Excluded:   make(map[string]string),
		TotalCount: len(records),
	}
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		// listings occasionally repeat a row
		if rec.Symbol == "" || seen[rec.Symbol] {
			continue
		}
		seen[rec.Symbol] = true

		reason := exclusionReason(rec, allowed, policy)
		if reason == "" && policy.MaxSymbols > 0 && len(u.Symbols) >= policy.MaxSymbols {
			reason = ExcludeCap
		}
		if reason != "" {
			u.Excluded[rec.Symbol] = reason
			continue
		}

		u.Symbols = append(u.Symbols, rec)
	}

	return u
}

// exclusionReason returns "" when rec is eligible. An empty type (batch
// screeners filter instrument type server-side) skips the type check.
func exclusionReason(rec contracts.SymbolRecord, allowed map[string]bool, policy screenconfig.Universe) string {
	if rec.Type != "" && len(allowed) > 0 && !allowed[rec.Type] {
		return ExcludeType
	}
	if policy.ExcludeClassShares && strings.ContainsAny(rec.Symbol, classShareSeparators) {
		return ExcludeClassShare
	}
	if policy.AlphaOnly && !isAlpha(rec.Symbol) {
		return ExcludeNonAlpha
	}
	return ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return s != ""
}
