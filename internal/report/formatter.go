// Package report renders scan results as notification text.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
)

// TimeLayout is how scan timestamps appear in messages (exchange time)
const TimeLayout = "2006-01-02 03:04 PM MST"

// NoMatchesText prefixes the message sent when a scan finds nothing
const NoMatchesText = "❌ No stocks matched criteria in this scan"

// Formatter builds the single notification text for a scan
// ⭐ SSOT: message wording and number formatting live here only
type Formatter struct {
	maxEntries int
	loc        *time.Location
	printer    *message.Printer
}

// NewFormatter creates a formatter rendering timestamps in loc
func NewFormatter(cfg screenconfig.Report, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 25
	}
	return &Formatter{
		maxEntries: maxEntries,
		loc:        loc,
		printer:    message.NewPrinter(language.English),
	}
}

// BuildReport renders the report; same input, same bytes
func (f *Formatter) BuildReport(r contracts.ScanReport) string {
	stamp := f.timestamp(r.ScanTime)
	if len(r.Matches) == 0 {
		return fmt.Sprintf("%s @ %s", NoMatchesText, stamp)
	}

	matches := Sorted(r.Matches)
	total := len(matches)
	if total > f.maxEntries {
		matches = matches[:f.maxEntries]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📡 Market scan @ %s | %d %s", stamp, total, plural(total, "match", "matches"))
	if len(matches) < total {
		fmt.Fprintf(&b, " (showing %d of %d)", len(matches), total)
	}
	b.WriteString("\n")

	for _, m := range matches {
		b.WriteString("\n")
		b.WriteString(f.line(m))
	}
	return b.String()
}

// FetchErrorNotice is sent when the universe could not be fetched
func (f *Formatter) FetchErrorNotice(scanTime time.Time) string {
	return fmt.Sprintf("⚠️ Scan aborted: could not fetch universe @ %s", f.timestamp(scanTime))
}

func (f *Formatter) line(m contracts.MatchResult) string {
	change := decimal.NewFromFloat(m.ChangePercent).Round(2)
	sign, arrow := "", "📉"
	if change.Sign() > 0 {
		sign, arrow = "+", "📈"
	}
	capM := decimal.NewFromFloat(m.MarketCap).Round(0).IntPart()

	return fmt.Sprintf(
		"🔥 $%s ALERT\nPrice: $%s\nChange: %s%s%% %s\nVolume: %s | Rel Vol: %s\nMarket Cap: $%sM\n",
		m.Symbol,
		decimal.NewFromFloat(m.Price).StringFixed(2),
		sign, change.StringFixed(2), arrow,
		f.printer.Sprintf("%d", m.Volume),
		decimal.NewFromFloat(m.RelativeVolume).StringFixed(2),
		f.printer.Sprintf("%d", capM),
	)
}

func (f *Formatter) timestamp(t time.Time) string {
	return t.In(f.loc).Format(TimeLayout)
}

// Sorted returns a copy ordered by change percent descending, ties by symbol
func Sorted(matches []contracts.MatchResult) []contracts.MatchResult {
	out := make([]contracts.MatchResult, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ChangePercent != out[j].ChangePercent {
			return out[i].ChangePercent > out[j].ChangePercent
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
