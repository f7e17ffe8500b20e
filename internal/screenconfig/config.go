package screenconfig

import "time"

// Reference price choices for the gap computation
const (
	ReferencePreviousClose = "previous_close"
	ReferenceOpen          = "open"
)

// Relative volume modes
const (
	RelVolMetric  = "metric"  // vendor-provided ratio
	RelVolCandles = "candles" // last bar / mean of the lookback window
)

// Config is the full screen configuration
// ⭐ SSOT: thresholds, window and universe policy live here, never as package constants
type Config struct {
	Window         Window         `yaml:"window" json:"window"`
	Criteria       Criteria       `yaml:"criteria" json:"criteria"`
	Universe       Universe       `yaml:"universe" json:"universe"`
	RelativeVolume RelativeVolume `yaml:"relative_volume" json:"relative_volume"`
	Report         Report         `yaml:"report" json:"report"`
}

// Window is the daily scan window in exchange-local time
type Window struct {
	Timezone     string `yaml:"timezone" json:"timezone" default:"America/New_York" validate:"required"`
	Start        string `yaml:"start" json:"start" default:"09:30" validate:"required"` // HH:MM, inclusive
	End          string `yaml:"end" json:"end" default:"16:00" validate:"required"`     // HH:MM, exclusive
	WeekdaysOnly bool   `yaml:"weekdays_only" json:"weekdays_only" default:"true"`
}

// Location resolves the window timezone
func (w Window) Location() (*time.Location, error) {
	return time.LoadLocation(w.Timezone)
}

// Criteria is the conjunction of numeric thresholds a symbol must satisfy
type Criteria struct {
	PriceMax             float64  `yaml:"price_max" json:"price_max" default:"5" validate:"gt=0"`
	PriceMin             *float64 `yaml:"price_min,omitempty" json:"price_min,omitempty" validate:"omitempty,gt=0"`
	MinGapPercent        float64  `yaml:"min_gap_percent" json:"min_gap_percent" default:"10" validate:"gte=0"`
	MinVolume            int64    `yaml:"min_volume" json:"min_volume" default:"1000000" validate:"gte=0"`
	MinRelativeVolume    float64  `yaml:"min_relative_volume" json:"min_relative_volume" default:"2" validate:"gte=0"`
	MarketCapMax         float64  `yaml:"market_cap_max" json:"market_cap_max" default:"2000" validate:"gt=0"` // millions
	MarketCapMin         *float64 `yaml:"market_cap_min,omitempty" json:"market_cap_min,omitempty" validate:"omitempty,gt=0"`
	InclusiveUpperBounds bool     `yaml:"inclusive_upper_bounds" json:"inclusive_upper_bounds"`
	Reference            string   `yaml:"reference" json:"reference" default:"previous_close" validate:"oneof=previous_close open"`
}

// Universe is the symbol-list policy applied before any per-symbol request
type Universe struct {
	AllowedTypes       []string `yaml:"allowed_types" json:"allowed_types" default:"[\"Common Stock\"]" validate:"min=1,dive,required"`
	ExcludeClassShares bool     `yaml:"exclude_class_shares" json:"exclude_class_shares" default:"true"`
	AlphaOnly          bool     `yaml:"alpha_only" json:"alpha_only" default:"true"`
	MaxSymbols         int      `yaml:"max_symbols" json:"max_symbols" validate:"gte=0"` // 0 = no cap
}

// RelativeVolume selects how relative volume is derived
type RelativeVolume struct {
	Mode       string `yaml:"mode" json:"mode" default:"metric" validate:"oneof=metric candles"`
	Resolution string `yaml:"resolution" json:"resolution" default:"5" validate:"oneof=1 5 15 30 60 D"`
	Lookback   int    `yaml:"lookback" json:"lookback" default:"10" validate:"gte=2,lte=500"`
}

// Report controls the notification text
type Report struct {
	MaxEntries int `yaml:"max_entries" json:"max_entries" default:"25" validate:"gte=1,lte=200"`
}
