// Package finnhub composes screen metrics from the Finnhub REST API.
package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/pennyscan/pkg/config"
	"github.com/wonny/pennyscan/pkg/httputil"
	"github.com/wonny/pennyscan/pkg/logger"
)

const tokenHeader = "X-Finnhub-Token"

// Client handles communication with the Finnhub REST API
// ⭐ SSOT: Finnhub calls are made from this client only
type Client struct {
	httpClient *httputil.Client // listing calls, capped retry
	symbolHTTP *httputil.Client // per-symbol calls, single attempt
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	exchange   string
}

// NewClient creates a new Finnhub client
func NewClient(httpClient *httputil.Client, cfg config.FinnhubConfig, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "US"
	}
	return &Client{
		httpClient: httpClient,
		symbolHTTP: httpClient.Clone().DisableRetry(),
		logger:     log.Component("finnhub"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		exchange:   exchange,
	}
}

// get performs an authenticated GET and decodes the JSON body into dest
func (c *Client) get(ctx context.Context, hc *httputil.Client, path string, params url.Values, dest interface{}) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	headers := http.Header{tokenHeader: {c.apiKey}}
	if err := hc.GetJSON(ctx, fullURL, headers, dest); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}
