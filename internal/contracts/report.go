package contracts

import (
	"errors"
	"fmt"
	"time"
)

// ErrBusy is set on a result rejected because another scan holds the guard
var ErrBusy = errors.New("scan already in progress")

// MatchResult is one symbol that passed every screen predicate
type MatchResult struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	ChangePercent  float64 `json:"change_percent"`
	Volume         int64   `json:"volume"`
	RelativeVolume float64 `json:"relative_volume"`
	MarketCap      float64 `json:"market_cap"` // millions
}

// ScanReport is the unit handed to the notifier
// ⭐ SSOT: aggregator → formatter → notifier hand-off
type ScanReport struct {
	ScanTime     time.Time     `json:"scan_time"`
	Matches      []MatchResult `json:"matches"`
	UniverseSize int           `json:"universe_size"`
	Evaluated    int           `json:"evaluated"`
	Failed       int           `json:"failed"` // symbols skipped for transport or data errors
}

// Outcome is the terminal state of one scan invocation
type Outcome string

const (
	OutcomeOutsideWindow Outcome = "skipped_outside_window"
	OutcomeBusy          Outcome = "skipped_busy"
	OutcomeCompleted     Outcome = "completed"
	OutcomeFetchError    Outcome = "fetch_error"
)

// ScanResult describes what one invocation did
type ScanResult struct {
	Outcome  Outcome       `json:"outcome"`
	Report   *ScanReport   `json:"report,omitempty"`
	Message  string        `json:"message,omitempty"` // text handed to the notifier
	Notified bool          `json:"notified"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// MatchCount returns the number of matches, 0 when no report was built
func (r *ScanResult) MatchCount() int {
	if r.Report == nil {
		return 0
	}
	return len(r.Report.Matches)
}

// Summary renders the outcome as a short operator-facing string
func (r *ScanResult) Summary() string {
	switch r.Outcome {
	case OutcomeOutsideWindow:
		return "skipped: outside window"
	case OutcomeBusy:
		return "skipped: scan already in progress"
	case OutcomeFetchError:
		return "completed: fetch error"
	case OutcomeCompleted:
		return fmt.Sprintf("completed: %d matches", r.MatchCount())
	default:
		return string(r.Outcome)
	}
}
