package screener

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/pkg/logger"
)

// Filter names returned by Reason, in evaluation order
const (
	ReasonMissingPrice     = "missing_price"
	ReasonMissingReference = "missing_reference"
	ReasonMissingVolume    = "missing_volume"
	ReasonMissingRelVol    = "missing_relative_volume"
	ReasonMissingMarketCap = "missing_market_cap"
	ReasonPriceInvalid     = "price_non_positive"
	ReasonPriceMax         = "price_max"
	ReasonPriceMin         = "price_min"
	ReasonReference        = "reference_non_positive"
	ReasonGap              = "gap"
	ReasonVolume           = "volume"
	ReasonRelativeVolume   = "relative_volume"
	ReasonMarketCapInvalid = "market_cap_non_positive"
	ReasonMarketCapMax     = "market_cap_max"
	ReasonMarketCapMin     = "market_cap_min"
)

// Evaluator applies the momentum screen to one symbol's metrics
// ⭐ SSOT: screen predicates are evaluated here only
type Evaluator struct {
	criteria screenconfig.Criteria
	logger   *logger.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(criteria screenconfig.Criteria, log *logger.Logger) *Evaluator {
	return &Evaluator{
		criteria: criteria,
		logger:   log.Component("screener"),
	}
}

// Criteria returns the thresholds in effect
func (e *Evaluator) Criteria() screenconfig.Criteria {
	return e.criteria
}

// Evaluate returns the match for m, or false when any predicate fails
func (e *Evaluator) Evaluate(m contracts.Metrics) (contracts.MatchResult, bool) {
	if e.Reason(m) != "" {
		return contracts.MatchResult{}, false
	}

	change, _ := PercentChange(*m.Price, *m.Reference)
	return contracts.MatchResult{
		Symbol:         m.Symbol,
		Price:          *m.Price,
		ChangePercent:  change,
		Volume:         *m.Volume,
		RelativeVolume: *m.RelativeVolume,
		MarketCap:      *m.MarketCap,
	}, true
}

// EvaluateAll screens a batch and counts rejections per filter
func (e *Evaluator) EvaluateAll(batch []contracts.Metrics) ([]contracts.MatchResult, map[string]int) {
	passed := make([]contracts.MatchResult, 0)
	filtered := make(map[string]int) // Filter name -> count

	for _, m := range batch {
		if match, ok := e.Evaluate(m); ok {
			passed = append(passed, match)
			continue
		}
		filtered[e.Reason(m)]++
	}

	e.logger.WithFields(map[string]interface{}{
		"total_input":  len(batch),
		"passed":       len(passed),
		"filtered_out": len(batch) - len(passed),
		"filters":      filtered,
	}).Info("Screening completed")

	return passed, filtered
}

// Reason returns the first failing filter name, or "" when m passes
func (e *Evaluator) Reason(m contracts.Metrics) string {
	c := e.criteria

	// Required fields
	switch {
	case m.Price == nil:
		return ReasonMissingPrice
	case m.Reference == nil:
		return ReasonMissingReference
	case m.Volume == nil:
		return ReasonMissingVolume
	case m.RelativeVolume == nil:
		return ReasonMissingRelVol
	case m.MarketCap == nil:
		return ReasonMissingMarketCap
	}
	price := *m.Price
	if price <= 0 {
		return ReasonPriceInvalid
	}

	// Price bounds
	if !e.belowCeiling(price, c.PriceMax) {
		return ReasonPriceMax
	}
	if c.PriceMin != nil && price < *c.PriceMin {
		return ReasonPriceMin
	}

	// Gap vs reference
	change, ok := percentChange(price, *m.Reference)
	if !ok {
		return ReasonReference
	}
	if change.LessThan(decimal.NewFromFloat(c.MinGapPercent)) {
		return ReasonGap
	}

	// Volume
	if *m.Volume < c.MinVolume {
		return ReasonVolume
	}
	if *m.RelativeVolume < c.MinRelativeVolume {
		return ReasonRelativeVolume
	}

	// Market cap (millions)
	marketCap := *m.MarketCap
	if marketCap <= 0 {
		return ReasonMarketCapInvalid
	}
	if !e.belowCeiling(marketCap, c.MarketCapMax) {
		return ReasonMarketCapMax
	}
	if c.MarketCapMin != nil && marketCap < *c.MarketCapMin {
		return ReasonMarketCapMin
	}

	return ""
}

// belowCeiling applies the configured upper-bound policy
func (e *Evaluator) belowCeiling(v, ceiling float64) bool {
	if e.criteria.InclusiveUpperBounds {
		return v <= ceiling
	}
	return v < ceiling
}

var hundred = decimal.NewFromInt(100)

// PercentChange returns (price - reference) / reference * 100.
// A non-positive reference yields false instead of dividing.
func PercentChange(price, reference float64) (float64, bool) {
	change, ok := percentChange(price, reference)
	if !ok {
		return 0, false
	}
	return change.InexactFloat64(), true
}

// percentChange works on the quotes' shortest decimal form, so a
// two-decimal 3.30 vs 3.00 is exactly 10 and ties the lower bound
func percentChange(price, reference float64) (decimal.Decimal, bool) {
	if reference <= 0 {
		return decimal.Zero, false
	}
	ref := decimal.NewFromFloat(reference)
	return decimal.NewFromFloat(price).Sub(ref).Div(ref).Mul(hundred), true
}
