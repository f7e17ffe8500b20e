// Package finviz scrapes the Finviz screener table as a batch source.
package finviz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/pkg/config"
	"github.com/wonny/pennyscan/pkg/httputil"
	"github.com/wonny/pennyscan/pkg/logger"
)

const (
	pageSize  = 20
	maxPages  = 25
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	// Ticker, Market Cap, Rel Volume, Price, Change, Volume, Open
	columns = "1,6,64,65,66,67,68"
)

// Client handles communication with the Finviz screener
// ⭐ SSOT: Finviz scraping happens in this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	screen     *screenconfig.Config
}

// NewClient creates a new Finviz batch screener
func NewClient(httpClient *httputil.Client, cfg config.FinvizConfig, screen *screenconfig.Config, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://finviz.com"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("finviz"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		screen:     screen,
	}
}

// Filters builds the coarse server-side filter list. The price filter is
// omitted when no Finviz bucket can hold the ceiling.
func Filters(criteria screenconfig.Criteria) string {
	var filters []string
	if b, ok := bucket(criteria.PriceMax, criteria.InclusiveUpperBounds); ok {
		filters = append(filters, "sh_price_u"+b)
	}
	if criteria.MinVolume > 0 {
		filters = append(filters, "sh_curvol_o"+strconv.FormatInt(criteria.MinVolume/1000, 10))
	}
	if criteria.MinGapPercent > 0 {
		filters = append(filters, "ta_change_u")
	}
	return strings.Join(filters, ",")
}

// Screen pages through the screener until no new symbols appear
func (c *Client) Screen(ctx context.Context) (*contracts.ScreenResult, error) {
	seen := make(map[string]bool)
	metrics := make([]contracts.Metrics, 0)

	for page := 0; page < maxPages; page++ {
		html, err := c.fetchPage(ctx, page*pageSize+1)
		if err != nil {
			return nil, err
		}
		rows, err := parseScreenerTable(html, c.screen.Criteria.Reference)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, m := range rows {
			// the last page repeats when r runs past the end
			if seen[m.Symbol] {
				continue
			}
			seen[m.Symbol] = true
			metrics = append(metrics, m)
			added++
		}
		if added == 0 || len(rows) < pageSize {
			break
		}
	}

	c.logger.WithField("rows", len(metrics)).Info("Finviz screen fetched")
	return &contracts.ScreenResult{Metrics: metrics}, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) (string, error) {
	params := url.Values{
		"v": {"152"},
		"f": {Filters(c.screen.Criteria)},
		"c": {columns},
		"o": {"-change"},
		"r": {strconv.Itoa(offset)},
	}
	fullURL := fmt.Sprintf("%s/screener.ashx?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, http.Header{"User-Agent": {userAgent}})
	if err != nil {
		return "", fmt.Errorf("finviz screener: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("finviz screener: %w", &httputil.StatusError{StatusCode: resp.StatusCode, URL: fullURL})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

// parseScreenerTable locates the row whose cells read Ticker/Price and maps each sibling row
func parseScreenerTable(html, reference string) ([]contracts.Metrics, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var header *goquery.Selection
	index := map[string]int{}
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cols := map[string]int{}
		row.ChildrenFiltered("td,th").Each(func(i int, cell *goquery.Selection) {
			cols[cleanText(cell.Text())] = i
		})
		_, hasTicker := cols["Ticker"]
		_, hasPrice := cols["Price"]
		if hasTicker && hasPrice {
			header, index = row, cols
			return false
		}
		return true
	})
	if header == nil {
		return []contracts.Metrics{}, nil
	}

	table := header.Closest("table")
	rows := table.ChildrenFiltered("thead,tbody").ChildrenFiltered("tr").AddSelection(table.ChildrenFiltered("tr"))

	metrics := make([]contracts.Metrics, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		if row.IsSelection(header) {
			return
		}
		cells := row.ChildrenFiltered("td")
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= cells.Length() {
				return ""
			}
			return cleanText(cells.Eq(i).Text())
		}

		symbol := cell("Ticker")
		if symbol == "" {
			return
		}
		m := contracts.Metrics{
			Symbol:         symbol,
			Price:          parseNumber(cell("Price")),
			RelativeVolume: parseNumber(cell("Rel Volume")),
			MarketCap:      parseMarketCap(cell("Market Cap")),
		}
		if v := parseNumber(cell("Volume")); v != nil {
			m.Volume = contracts.Int(int64(*v))
		}
		if reference == screenconfig.ReferenceOpen {
			m.Reference = parseNumber(cell("Open"))
		} else {
			m.Reference = previousClose(m.Price, parseNumber(strings.TrimSuffix(cell("Change"), "%")))
		}
		metrics = append(metrics, m)
	})

	return metrics, nil
}

// previousClose backs the prior close out of price and percent change
func previousClose(price, changePct *float64) *float64 {
	if price == nil || changePct == nil || *changePct <= -100 {
		return nil
	}
	return contracts.Float(*price / (1 + *changePct/100))
}

// parseNumber reads "1,234.5"; "-" and "" are absent
func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseMarketCap reads "48.70M" / "1.2B" / "350K" into millions
func parseMarketCap(s string) *float64 {
	if s == "" || s == "-" {
		return nil
	}
	scale := 1.0
	switch s[len(s)-1] {
	case 'K':
		scale = 0.001
	case 'M':
		scale = 1
	case 'B':
		scale = 1000
	case 'T':
		scale = 1_000_000
	default:
		// bare number is dollars
		v := parseNumber(s)
		if v == nil {
			return nil
		}
		return contracts.Float(*v / 1e6)
	}
	v := parseNumber(s[:len(s)-1])
	if v == nil {
		return nil
	}
	return contracts.Float(*v * scale)
}

// priceBuckets are the Finviz "under $N" filters; each is strictly below N
var priceBuckets = []float64{1, 2, 3, 4, 5, 7, 10, 15, 20, 30, 40, 50}

// bucket picks the smallest "under $N" filter that keeps every row the
// evaluator could accept. An inclusive ceiling on an edge moves one step up.
// ok is false when the ceiling is above the largest bucket.
func bucket(priceMax float64, inclusive bool) (string, bool) {
	for _, b := range priceBuckets {
		if priceMax < b || (!inclusive && priceMax == b) {
			return strconv.FormatFloat(b, 'f', -1, 64), true
		}
	}
	return "", false
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
