package contracts

import "context"

// UniverseFetcher retrieves the candidate symbols of an exchange
// ⭐ SSOT: universe fetch interface
type UniverseFetcher interface {
	FetchUniverse(ctx context.Context) (*Universe, error)
}

// MetricFetcher retrieves one symbol's metrics; errors are isolated per symbol
// ⭐ SSOT: per-symbol metric fetch interface
type MetricFetcher interface {
	FetchMetrics(ctx context.Context, symbol string) (*Metrics, error)
}

// ScreenResult is what one batch screen produced
type ScreenResult struct {
	Metrics []Metrics
	Failed  int // eligible symbols whose rows could not be fetched
}

// BatchScreener submits coarse predicates server-side and returns pre-filtered rows
type BatchScreener interface {
	Screen(ctx context.Context) (*ScreenResult, error)
}

// Notifier delivers a formatted report to the messaging endpoint
// ⭐ SSOT: delivery interface
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
