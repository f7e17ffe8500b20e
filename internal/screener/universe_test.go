package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
)

func TestApplyPolicy(t *testing.T) {
	records := []contracts.SymbolRecord{
		{Symbol: "AAA", Type: "Common Stock"},
		{Symbol: "BB-W", Type: "Common Stock"},
		{Symbol: "CCC", Type: "ADR"},
		{Symbol: "DDD", Type: "Common Stock"},
		{Symbol: "EEE", Type: "Common Stock"},
	}

	t.Run("cap", func(t *testing.T) {
		u := ApplyPolicy(records, screenconfig.Universe{AllowedTypes: []string{"Common Stock"}, ExcludeClassShares: true, MaxSymbols: 2})
		assert.Equal(t, []string{"AAA", "DDD"}, u.Tickers())
		_, reason := u.IsExcluded("EEE")
		assert.Equal(t, ExcludeCap, reason)
	})

	t.Run("untyped rows skip the type check", func(t *testing.T) {
		u := ApplyPolicy([]contracts.SymbolRecord{{Symbol: "FFF"}, {Symbol: "GG.U"}}, screenconfig.Universe{
			AllowedTypes:       []string{"Common Stock"},
			ExcludeClassShares: true,
		})
		assert.Equal(t, []string{"FFF"}, u.Tickers())
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		u := ApplyPolicy([]contracts.SymbolRecord{{Symbol: "AAA"}, {Symbol: "AAA"}}, screenconfig.Universe{})
		assert.Equal(t, 1, u.Count())
		assert.Equal(t, 2, u.TotalCount)
	})

	t.Run("permissive", func(t *testing.T) {
		u := ApplyPolicy(records, screenconfig.Universe{AllowedTypes: []string{"Common Stock", "ADR"}})
		assert.Equal(t, 5, u.Count())
	})
}

