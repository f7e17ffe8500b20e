package finnhub

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/pkg/logger"
	redisx "github.com/wonny/pennyscan/pkg/redis"
)

// ProfileCache stores company profiles between scans
type ProfileCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// MetricFetcher composes quote, profile and relative volume into Metrics
type MetricFetcher struct {
	client    *Client
	reference string
	relVol    screenconfig.RelativeVolume
	cache     ProfileCache
	cacheTTL  time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewMetricFetcher creates a new metric fetcher. cache may be nil.
func NewMetricFetcher(client *Client, cfg *screenconfig.Config, cache ProfileCache, cacheTTL time.Duration, log *logger.Logger) *MetricFetcher {
	return &MetricFetcher{
		client:    client,
		reference: cfg.Criteria.Reference,
		relVol:    cfg.RelativeVolume,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    log.Component("metrics"),
		now:       time.Now,
	}
}

// FetchMetrics returns the metrics of symbol, or an error isolated to it
func (f *MetricFetcher) FetchMetrics(ctx context.Context, symbol string) (*contracts.Metrics, error) {
	q, err := f.client.Quote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s quote: %w", symbol, err)
	}
	// unknown symbols come back as an all-zero quote
	if q.Current == nil || *q.Current == 0 {
		return nil, fmt.Errorf("%s quote.c: %w", symbol, contracts.ErrMissingField)
	}

	ref := q.PreviousClose
	if f.reference == screenconfig.ReferenceOpen {
		ref = q.Open
	}
	if ref == nil {
		return nil, fmt.Errorf("%s %s: %w", symbol, f.reference, contracts.ErrMissingField)
	}
	if q.Volume == nil {
		return nil, fmt.Errorf("%s quote.v: %w", symbol, contracts.ErrMissingField)
	}
	volume := int64(math.Round(*q.Volume))

	marketCap, err := f.marketCap(ctx, symbol)
	if err != nil {
		return nil, err
	}

	relVol, err := f.relativeVolume(ctx, symbol, volume)
	if err != nil {
		return nil, err
	}

	return &contracts.Metrics{
		Symbol:         symbol,
		Price:          contracts.Float(*q.Current),
		Reference:      contracts.Float(*ref),
		Volume:         contracts.Int(volume),
		RelativeVolume: contracts.Float(relVol),
		MarketCap:      contracts.Float(marketCap),
	}, nil
}

// marketCap returns the profile market cap in millions, cache-first
func (f *MetricFetcher) marketCap(ctx context.Context, symbol string) (float64, error) {
	key := redisx.ProfileKey(symbol)

	if f.cache != nil && f.cacheTTL > 0 {
		var cached Profile
		hit, err := f.cache.Get(ctx, key, &cached)
		if err != nil {
			f.logger.WithError(err).WithField("symbol", symbol).Debug("Profile cache read failed")
		}
		if hit && cached.MarketCapitalization != nil {
			return *cached.MarketCapitalization, nil
		}
	}

	p, err := f.client.Profile(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%s profile: %w", symbol, err)
	}
	if p.MarketCapitalization == nil {
		return 0, fmt.Errorf("%s profile.marketCapitalization: %w", symbol, contracts.ErrMissingField)
	}

	if f.cache != nil && f.cacheTTL > 0 {
		if err := f.cache.Set(ctx, key, p, f.cacheTTL); err != nil {
			f.logger.WithError(err).WithField("symbol", symbol).Debug("Profile cache write failed")
		}
	}
	return *p.MarketCapitalization, nil
}

// relativeVolume derives relative volume per the configured mode
func (f *MetricFetcher) relativeVolume(ctx context.Context, symbol string, volume int64) (float64, error) {
	if f.relVol.Mode == screenconfig.RelVolCandles {
		return f.candleRelativeVolume(ctx, symbol)
	}

	bf, err := f.client.BasicFinancials(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%s metric: %w", symbol, err)
	}
	if bf.Metric.RelativeVolume != nil {
		return *bf.Metric.RelativeVolume, nil
	}
	// fall back to today's volume over the 10-day average (reported in millions)
	if avg := bf.Metric.TenDayAverageTradingVolume; avg != nil && *avg > 0 {
		return float64(volume) / (*avg * 1e6), nil
	}
	return 0, fmt.Errorf("%s metric.relativeVolume: %w", symbol, contracts.ErrMissingField)
}

// candleRelativeVolume is last bar volume over the mean of the last N bars
func (f *MetricFetcher) candleRelativeVolume(ctx context.Context, symbol string) (float64, error) {
	to := f.now()
	from := to.Add(-candleSpan(f.relVol.Resolution, f.relVol.Lookback))

	cs, err := f.client.Candles(ctx, symbol, f.relVol.Resolution, from.Unix(), to.Unix())
	if err != nil {
		return 0, fmt.Errorf("%s candle: %w", symbol, err)
	}
	if cs.Status != "ok" {
		return 0, nil
	}
	return RelativeVolumeFromSeries(cs.Volume, f.relVol.Lookback), nil
}

// RelativeVolumeFromSeries returns last / mean(last n samples); 0 when the mean is 0 or no samples exist
func RelativeVolumeFromSeries(volumes []float64, n int) float64 {
	if len(volumes) == 0 || n <= 0 {
		return 0
	}
	if len(volumes) > n {
		volumes = volumes[len(volumes)-n:]
	}

	sum := 0.0
	for _, v := range volumes {
		sum += v
	}
	mean := sum / float64(len(volumes))
	if mean <= 0 {
		return 0
	}
	return volumes[len(volumes)-1] / mean
}

// candleSpan is a query window wide enough to hold n bars across a weekend
func candleSpan(resolution string, n int) time.Duration {
	if resolution == "D" {
		return time.Duration(n*2+7) * 24 * time.Hour
	}
	minutes, err := strconv.Atoi(resolution)
	if err != nil || minutes <= 0 {
		minutes = 5
	}
	span := time.Duration(n*minutes) * time.Minute
	const weekend = 4 * 24 * time.Hour
	if span < weekend {
		span = weekend
	}
	return span
}

func formatUnix(sec int64) string {
	return strconv.FormatInt(sec, 10)
}
