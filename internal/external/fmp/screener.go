// Package fmp adapts the Financial Modeling Prep stock screener as a batch source.
package fmp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/internal/screener"
	"github.com/wonny/pennyscan/pkg/config"
	"github.com/wonny/pennyscan/pkg/httputil"
	"github.com/wonny/pennyscan/pkg/logger"
)

const (
	screenerLimit  = 1000
	quoteChunkSize = 50
	exchanges      = "NASDAQ,NYSE,AMEX"
)

// Client handles communication with Financial Modeling Prep
// ⭐ SSOT: FMP calls are made from this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	screen     *screenconfig.Config
}

// NewClient creates a new FMP batch screener
func NewClient(httpClient *httputil.Client, cfg config.FMPConfig, screen *screenconfig.Config, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com/api/v3"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("fmp"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		screen:     screen,
	}
}

// screenerRow is one row of /stock-screener
type screenerRow struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	MarketCap         float64 `json:"marketCap"`
	Price             float64 `json:"price"`
	Volume            float64 `json:"volume"`
	ExchangeShortName string  `json:"exchangeShortName"`
	IsEtf             bool    `json:"isEtf"`
	IsFund            bool    `json:"isFund"`
}

// quoteRow is one row of /quote/{symbols}
type quoteRow struct {
	Symbol            string   `json:"symbol"`
	Price             *float64 `json:"price"`
	ChangesPercentage *float64 `json:"changesPercentage"`
	Open              *float64 `json:"open"`
	PreviousClose     *float64 `json:"previousClose"`
	Volume            *float64 `json:"volume"`
	AvgVolume         *float64 `json:"avgVolume"`
	MarketCap         *float64 `json:"marketCap"` // absolute dollars
}

// Screen submits coarse predicates server-side, then quotes the survivors
// A failed quote batch is skipped and its symbols counted as failed;
// the screen errors only when every batch failed.
func (c *Client) Screen(ctx context.Context) (*contracts.ScreenResult, error) {
	rows, err := c.screenerRows(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]contracts.SymbolRecord, 0, len(rows))
	for _, row := range rows {
		if row.IsEtf || row.IsFund {
			continue
		}
		records = append(records, contracts.SymbolRecord{Symbol: row.Symbol, Description: row.CompanyName})
	}
	universe := screener.ApplyPolicy(records, c.screen.Universe)
	symbols := universe.Tickers()

	metrics := make([]contracts.Metrics, 0, len(symbols))
	var (
		failed    int
		batches   int
		lastErr   error
		okBatches int
	)
	for start := 0; start < len(symbols); start += quoteChunkSize {
		end := start + quoteChunkSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batches++
		quotes, err := c.quotes(ctx, symbols[start:end])
		if err != nil {
			failed += end - start
			lastErr = err
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"first_symbol": symbols[start],
				"batch_size":   end - start,
			}).Warn("FMP quote batch skipped")
			continue
		}
		okBatches++
		for _, q := range quotes {
			metrics = append(metrics, c.toMetrics(q))
		}
	}
	if batches > 0 && okBatches == 0 {
		return nil, fmt.Errorf("all %d quote batches failed: %w", batches, lastErr)
	}

	c.logger.WithFields(map[string]interface{}{
		"screener_rows": len(rows),
		"eligible":      len(symbols),
		"quoted":        len(metrics),
		"failed":        failed,
	}).Info("FMP screen fetched")

	return &contracts.ScreenResult{Metrics: metrics, Failed: failed}, nil
}

// ScreenerParams builds the coarse server-side predicates. Bounds are
// loosened by one unit so boundary rows still reach the evaluator.
func ScreenerParams(criteria screenconfig.Criteria) url.Values {
	params := url.Values{
		"priceLowerThan":     {formatFloat(criteria.PriceMax + 0.01)},
		"volumeMoreThan":     {strconv.FormatInt(max64(criteria.MinVolume-1, 0), 10)},
		"marketCapLowerThan": {formatFloat((criteria.MarketCapMax + 1) * 1e6)},
		"isEtf":              {"false"},
		"isFund":             {"false"},
		"isActivelyTrading":  {"true"},
		"exchange":           {exchanges},
		"limit":              {strconv.Itoa(screenerLimit)},
	}
	if criteria.PriceMin != nil {
		params.Set("priceMoreThan", formatFloat(*criteria.PriceMin-0.01))
	}
	if criteria.MarketCapMin != nil {
		params.Set("marketCapMoreThan", formatFloat((*criteria.MarketCapMin-1)*1e6))
	}
	return params
}

func (c *Client) screenerRows(ctx context.Context) ([]screenerRow, error) {
	var rows []screenerRow
	if err := c.get(ctx, "/stock-screener", ScreenerParams(c.screen.Criteria), &rows); err != nil {
		return nil, fmt.Errorf("fmp screener: %w", err)
	}
	return rows, nil
}

func (c *Client) quotes(ctx context.Context, symbols []string) ([]quoteRow, error) {
	var rows []quoteRow
	path := "/quote/" + strings.Join(symbols, ",")
	if err := c.get(ctx, path, nil, &rows); err != nil {
		return nil, fmt.Errorf("fmp quote: %w", err)
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	return c.httpClient.GetJSON(ctx, fullURL, nil, dest)
}

// toMetrics maps a quote row; absent fields stay nil for the evaluator
func (c *Client) toMetrics(q quoteRow) contracts.Metrics {
	m := contracts.Metrics{
		Symbol: q.Symbol,
		Price:  q.Price,
	}

	if c.screen.Criteria.Reference == screenconfig.ReferenceOpen {
		m.Reference = q.Open
	} else {
		m.Reference = q.PreviousClose
	}
	if q.Volume != nil {
		m.Volume = contracts.Int(int64(*q.Volume))
		if q.AvgVolume != nil {
			relVol := 0.0
			if *q.AvgVolume > 0 {
				relVol = *q.Volume / *q.AvgVolume
			}
			m.RelativeVolume = contracts.Float(relVol)
		}
	}
	if q.MarketCap != nil {
		m.MarketCap = contracts.Float(*q.MarketCap / 1e6)
	}
	return m
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
