// Package timegate decides whether a scan may run at a given instant.
package timegate

import (
	"fmt"
	"time"

	"github.com/wonny/pennyscan/internal/screenconfig"
)

// Gate answers whether an instant falls inside the daily scan window
// ⭐ SSOT: the only place wall-clock time is compared against the window
type Gate struct {
	loc          *time.Location
	startMin     int // minutes after local midnight, inclusive
	endMin       int // exclusive
	weekdaysOnly bool
}

// New builds a Gate from the window configuration
func New(w screenconfig.Window) (*Gate, error) {
	loc, err := w.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid window timezone %q: %w", w.Timezone, err)
	}
	start, err := minuteOfDay(w.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid window start: %w", err)
	}
	end, err := minuteOfDay(w.End)
	if err != nil {
		return nil, fmt.Errorf("invalid window end: %w", err)
	}
	if start >= end {
		return nil, fmt.Errorf("window start %s must be before end %s", w.Start, w.End)
	}

	return &Gate{
		loc:          loc,
		startMin:     start,
		endMin:       end,
		weekdaysOnly: w.WeekdaysOnly,
	}, nil
}

// IsWithinScanWindow reports whether now, converted to exchange time, is in [start, end)
func (g *Gate) IsWithinScanWindow(now time.Time) bool {
	local := now.In(g.loc)

	if g.weekdaysOnly {
		switch local.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	m := local.Hour()*60 + local.Minute()
	return m >= g.startMin && m < g.endMin
}

// Location returns the exchange timezone
func (g *Gate) Location() *time.Location {
	return g.loc
}

func minuteOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
