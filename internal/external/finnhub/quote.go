package finnhub

import (
	"context"
	"net/url"
)

// Quote is the intraday quote of one symbol; nil fields were absent
type Quote struct {
	Current       *float64 `json:"c"`
	Open          *float64 `json:"o"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	PreviousClose *float64 `json:"pc"`
	Volume        *float64 `json:"v"`
	Timestamp     int64    `json:"t"`
}

// Quote fetches /quote for symbol
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.get(ctx, c.symbolHTTP, "/quote", url.Values{"symbol": {symbol}}, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Profile is the company profile subset the screen needs
type Profile struct {
	Ticker               string   `json:"ticker"`
	Name                 string   `json:"name"`
	Exchange             string   `json:"exchange"`
	MarketCapitalization *float64 `json:"marketCapitalization"` // millions
	ShareOutstanding     *float64 `json:"shareOutstanding"`
}

// Profile fetches /stock/profile2 for symbol
func (c *Client) Profile(ctx context.Context, symbol string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, c.symbolHTTP, "/stock/profile2", url.Values{"symbol": {symbol}}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// BasicFinancials is the /stock/metric subset used for relative volume
type BasicFinancials struct {
	Symbol string `json:"symbol"`
	Metric struct {
		RelativeVolume             *float64 `json:"relativeVolume"`
		TenDayAverageTradingVolume *float64 `json:"10DayAverageTradingVolume"` // millions of shares
	} `json:"metric"`
}

// BasicFinancials fetches /stock/metric?metric=all for symbol
func (c *Client) BasicFinancials(ctx context.Context, symbol string) (*BasicFinancials, error) {
	var bf BasicFinancials
	params := url.Values{"symbol": {symbol}, "metric": {"all"}}
	if err := c.get(ctx, c.symbolHTTP, "/stock/metric", params, &bf); err != nil {
		return nil, err
	}
	return &bf, nil
}

// Candles is the /stock/candle volume series
type Candles struct {
	Status string    `json:"s"` // "ok" or "no_data"
	Volume []float64 `json:"v"`
	Time   []int64   `json:"t"`
}

// Candles fetches bars for symbol between from and to (unix seconds)
func (c *Client) Candles(ctx context.Context, symbol, resolution string, from, to int64) (*Candles, error) {
	var cs Candles
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {resolution},
		"from":       {formatUnix(from)},
		"to":         {formatUnix(to)},
	}
	if err := c.get(ctx, c.symbolHTTP, "/stock/candle", params, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}
