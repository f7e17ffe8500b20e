package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/internal/screener"
	"github.com/wonny/pennyscan/pkg/logger"
)

// symbolResponse is one row of /stock/symbol
type symbolResponse struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	Currency      string `json:"currency"`
	MIC           string `json:"mic"`
}

// StockSymbols lists every instrument of the configured exchange
func (c *Client) StockSymbols(ctx context.Context) ([]contracts.SymbolRecord, error) {
	var rows []symbolResponse
	params := url.Values{"exchange": {c.exchange}}
	if err := c.get(ctx, c.httpClient, "/stock/symbol", params, &rows); err != nil {
		return nil, err
	}

	records := make([]contracts.SymbolRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, contracts.SymbolRecord{
			Symbol:      strings.TrimSpace(row.Symbol),
			Type:        row.Type,
			Description: row.Description,
		})
	}
	return records, nil
}

// UniverseFetcher builds the scan universe from the exchange listing
type UniverseFetcher struct {
	client *Client
	policy screenconfig.Universe
	logger *logger.Logger
}

// NewUniverseFetcher creates a new universe fetcher
func NewUniverseFetcher(client *Client, policy screenconfig.Universe, log *logger.Logger) *UniverseFetcher {
	return &UniverseFetcher{
		client: client,
		policy: policy,
		logger: log.Component("universe"),
	}
}

// FetchUniverse fetches the listing and applies the universe policy
func (f *UniverseFetcher) FetchUniverse(ctx context.Context) (*contracts.Universe, error) {
	records, err := f.client.StockSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}

	universe := screener.ApplyPolicy(records, f.policy)
	universe.FetchedAt = time.Now()

	f.logger.WithFields(map[string]interface{}{
		"listed":   universe.TotalCount,
		"eligible": universe.Count(),
		"excluded": len(universe.Excluded),
	}).Info("Universe fetched")

	return universe, nil
}
