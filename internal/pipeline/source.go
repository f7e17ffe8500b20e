package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/pkg/logger"
)

// Collection is what a source produced for one scan
type Collection struct {
	Metrics      []contracts.Metrics
	UniverseSize int
	Failed       int // symbols skipped for transport or data errors
}

// MetricsSource produces the candidate metrics of one scan.
// An error means the scan cannot proceed (fetch_error).
type MetricsSource interface {
	Name() string
	Collect(ctx context.Context) (*Collection, error)
}

// RESTSource composes metrics per symbol: universe first, then a bounded worker pool
type RESTSource struct {
	universe contracts.UniverseFetcher
	fetcher  contracts.MetricFetcher
	workers  int
	logger   *logger.Logger
}

// NewRESTSource creates a per-symbol source
func NewRESTSource(universe contracts.UniverseFetcher, fetcher contracts.MetricFetcher, workers int, log *logger.Logger) *RESTSource {
	if workers < 1 {
		workers = 1
	}
	return &RESTSource{
		universe: universe,
		fetcher:  fetcher,
		workers:  workers,
		logger:   log.Component("source"),
	}
}

// Name identifies the source in logs
func (s *RESTSource) Name() string { return "rest" }

// Collect fetches the universe, then every symbol's metrics. One failing symbol never fails the scan.
func (s *RESTSource) Collect(ctx context.Context) (*Collection, error) {
	u, err := s.universe.FetchUniverse(ctx)
	if err != nil {
		return nil, err
	}
	symbols := u.Tickers()

	results := make([]*contracts.Metrics, len(symbols))
	var (
		mu     sync.Mutex
		failed int
	)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, symbol := range symbols {
		g.Go(func() error {
			m, err := s.fetcher.FetchMetrics(ctx, symbol)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				s.logger.WithError(err).WithField("symbol", symbol).Debug("Symbol skipped")
				return nil
			}
			results[i] = m
			return nil
		})
	}
	_ = g.Wait()

	metrics := make([]contracts.Metrics, 0, len(symbols))
	for _, m := range results {
		if m != nil {
			metrics = append(metrics, *m)
		}
	}

	return &Collection{
		Metrics:      metrics,
		UniverseSize: len(symbols),
		Failed:       failed,
	}, nil
}

// BatchSource wraps a server-side screener that returns pre-filtered rows
type BatchSource struct {
	name     string
	screener contracts.BatchScreener
}

// NewBatchSource creates a batch source
func NewBatchSource(name string, screener contracts.BatchScreener) *BatchSource {
	return &BatchSource{name: name, screener: screener}
}

// Name identifies the source in logs
func (s *BatchSource) Name() string { return s.name }

// Collect runs the screener once, dropping repeated symbols
func (s *BatchSource) Collect(ctx context.Context) (*Collection, error) {
	screened, err := s.screener.Screen(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s screener: %w", s.name, err)
	}

	seen := make(map[string]bool, len(screened.Metrics))
	metrics := make([]contracts.Metrics, 0, len(screened.Metrics))
	for _, m := range screened.Metrics {
		if m.Symbol == "" || seen[m.Symbol] {
			continue
		}
		seen[m.Symbol] = true
		metrics = append(metrics, m)
	}

	return &Collection{
		Metrics:      metrics,
		UniverseSize: len(metrics) + screened.Failed,
		Failed:       screened.Failed,
	}, nil
}
