package screener

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/pkg/logger"
)

func defaultCriteria(t *testing.T) screenconfig.Criteria {
	t.Helper()
	cfg, err := screenconfig.Default()
	require.NoError(t, err)
	return cfg.Criteria
}

// passing: price 4.00 vs 3.00 close, 2.5M volume, relvol 3, cap 50M
func passing(symbol string) contracts.Metrics {
	return contracts.Metrics{
		Symbol:         symbol,
		Price:          contracts.Float(4.00),
		Reference:      contracts.Float(3.00),
		Volume:         contracts.Int(2_500_000),
		RelativeVolume: contracts.Float(3.0),
		MarketCap:      contracts.Float(50),
	}
}

func TestPercentChange(t *testing.T) {
	change, ok := PercentChange(4.00, 3.00)
	require.True(t, ok)
	assert.InDelta(t, 33.33, change, 0.005)

	change, ok = PercentChange(3.30, 3.00)
	require.True(t, ok)
	assert.Equal(t, 10.0, change)

	_, ok = PercentChange(4.00, 0)
	assert.False(t, ok)

	_, ok = PercentChange(4.00, -1)
	assert.False(t, ok)
}

func TestEvaluate_Match(t *testing.T) {
	e := NewEvaluator(defaultCriteria(t), logger.Nop())

	match, ok := e.Evaluate(passing("ABCD"))
	require.True(t, ok)
	assert.Equal(t, "ABCD", match.Symbol)
	assert.Equal(t, 4.00, match.Price)
	assert.InDelta(t, 33.33, match.ChangePercent, 0.005)
	assert.Equal(t, int64(2_500_000), match.Volume)
	assert.Equal(t, 3.0, match.RelativeVolume)
	assert.Equal(t, 50.0, match.MarketCap)
}

func TestEvaluate_Rejections(t *testing.T) {
	e := NewEvaluator(defaultCriteria(t), logger.Nop())

	tests := []struct {
		name   string
		mutate func(m *contracts.Metrics)
		reason string
	}{
		{"missing price", func(m *contracts.Metrics) { m.Price = nil }, ReasonMissingPrice},
		{"missing previous close", func(m *contracts.Metrics) { m.Reference = nil }, ReasonMissingReference},
		{"missing volume", func(m *contracts.Metrics) { m.Volume = nil }, ReasonMissingVolume},
		{"missing relvol", func(m *contracts.Metrics) { m.RelativeVolume = nil }, ReasonMissingRelVol},
		{"missing market cap", func(m *contracts.Metrics) { m.MarketCap = nil }, ReasonMissingMarketCap},
		{"zero price", func(m *contracts.Metrics) { m.Price = contracts.Float(0) }, ReasonPriceInvalid},
		{"above ceiling", func(m *contracts.Metrics) { m.Price = contracts.Float(6) }, ReasonPriceMax},
		{"zero reference", func(m *contracts.Metrics) { m.Reference = contracts.Float(0) }, ReasonReference},
		{"small gap", func(m *contracts.Metrics) { m.Reference = contracts.Float(3.9) }, ReasonGap},
		{"negative gap", func(m *contracts.Metrics) { m.Reference = contracts.Float(4.5) }, ReasonGap},
		{"thin volume", func(m *contracts.Metrics) { m.Volume = contracts.Int(999_999) }, ReasonVolume},
		{"low relvol", func(m *contracts.Metrics) { m.RelativeVolume = contracts.Float(1.99) }, ReasonRelativeVolume},
		{"zero relvol", func(m *contracts.Metrics) { m.RelativeVolume = contracts.Float(0) }, ReasonRelativeVolume},
		{"zero market cap", func(m *contracts.Metrics) { m.MarketCap = contracts.Float(0) }, ReasonMarketCapInvalid},
		{"large cap", func(m *contracts.Metrics) { m.MarketCap = contracts.Float(5000) }, ReasonMarketCapMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := passing("ABCD")
			tt.mutate(&m)

			assert.Equal(t, tt.reason, e.Reason(m))
			_, ok := e.Evaluate(m)
			assert.False(t, ok)
		})
	}
}

func TestEvaluate_LowerBoundsInclusive(t *testing.T) {
	e := NewEvaluator(defaultCriteria(t), logger.Nop())

	// every pair is exactly a 10% gap
	tests := []struct {
		price     float64
		reference float64
	}{
		{2.75, 2.50},
		{3.30, 3.00},
		{1.10, 1.00},
		{0.33, 0.30},
		{4.62, 4.20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f_vs_%.2f", tt.price, tt.reference), func(t *testing.T) {
			m := passing("EDGE")
			m.Price = contracts.Float(tt.price)
			m.Reference = contracts.Float(tt.reference)
			m.Volume = contracts.Int(1_000_000)
			m.RelativeVolume = contracts.Float(2.0)

			match, ok := e.Evaluate(m)
			require.True(t, ok, "reason: %s", e.Reason(m))
			assert.Equal(t, 10.0, match.ChangePercent)
		})
	}
}

func TestEvaluate_JustBelowGap(t *testing.T) {
	e := NewEvaluator(defaultCriteria(t), logger.Nop())

	m := passing("NEAR")
	m.Price = contracts.Float(3.29)
	m.Reference = contracts.Float(3.00)

	assert.Equal(t, ReasonGap, e.Reason(m))
}

func TestEvaluate_PriceCeilingPolicy(t *testing.T) {
	atCeiling := passing("FIVE")
	atCeiling.Price = contracts.Float(5.00)
	atCeiling.Reference = contracts.Float(4.00)

	t.Run("exclusive", func(t *testing.T) {
		e := NewEvaluator(defaultCriteria(t), logger.Nop())
		_, ok := e.Evaluate(atCeiling)
		assert.False(t, ok)
		assert.Equal(t, ReasonPriceMax, e.Reason(atCeiling))
	})

	t.Run("inclusive", func(t *testing.T) {
		criteria := defaultCriteria(t)
		criteria.InclusiveUpperBounds = true
		e := NewEvaluator(criteria, logger.Nop())
		_, ok := e.Evaluate(atCeiling)
		assert.True(t, ok, "reason: %s", e.Reason(atCeiling))
	})
}

func TestEvaluate_OptionalFloors(t *testing.T) {
	criteria := defaultCriteria(t)
	criteria.PriceMin = contracts.Float(4.50)
	criteria.MarketCapMin = contracts.Float(10)
	e := NewEvaluator(criteria, logger.Nop())

	assert.Equal(t, ReasonPriceMin, e.Reason(passing("LOW")))

	m := passing("TINY")
	m.Price = contracts.Float(4.80)
	m.MarketCap = contracts.Float(5)
	assert.Equal(t, ReasonMarketCapMin, e.Reason(m))
}

func TestEvaluateAll(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(defaultLogConfig(), &buf)
	e := NewEvaluator(defaultCriteria(t), log)

	noCap := passing("NOCAP")
	noCap.MarketCap = nil

	passed, filtered := e.EvaluateAll([]contracts.Metrics{passing("AAA"), noCap, passing("BBB")})

	require.Len(t, passed, 2)
	assert.Equal(t, "AAA", passed[0].Symbol)
	assert.Equal(t, "BBB", passed[1].Symbol)
	assert.Equal(t, map[string]int{ReasonMissingMarketCap: 1}, filtered)
	assert.Contains(t, buf.String(), "Screening completed")
}
