package contracts

import "errors"

// ErrMissingField marks a symbol whose upstream data lacked a required field
var ErrMissingField = errors.New("required field missing")

// Metrics is the transient per-symbol snapshot evaluated by the screen.
// Every numeric field is optional; nil means the upstream did not supply it.
type Metrics struct {
	Symbol         string   `json:"symbol"`
	Price          *float64 `json:"price,omitempty"`
	Reference      *float64 `json:"reference,omitempty"` // previous close or open, per deployment
	Volume         *int64   `json:"volume,omitempty"`
	RelativeVolume *float64 `json:"relative_volume,omitempty"`
	MarketCap      *float64 `json:"market_cap,omitempty"` // millions
}

// Missing returns the names of absent fields, in evaluation order
func (m *Metrics) Missing() []string {
	var missing []string
	if m.Price == nil {
		missing = append(missing, "price")
	}
	if m.Reference == nil {
		missing = append(missing, "reference")
	}
	if m.Volume == nil {
		missing = append(missing, "volume")
	}
	if m.RelativeVolume == nil {
		missing = append(missing, "relative_volume")
	}
	if m.MarketCap == nil {
		missing = append(missing, "market_cap")
	}
	return missing
}

// Complete reports whether every field is present
func (m *Metrics) Complete() bool {
	return len(m.Missing()) == 0
}

// Float returns a pointer to v
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int64) *int64 { return &v }
