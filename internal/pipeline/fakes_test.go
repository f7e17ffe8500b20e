package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/pennyscan/internal/contracts"
)

type fakeUniverse struct {
	symbols []string
	err     error
	calls   int32
}

func (f *fakeUniverse) FetchUniverse(ctx context.Context) (*contracts.Universe, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	u := &contracts.Universe{FetchedAt: time.Now(), TotalCount: len(f.symbols)}
	for _, s := range f.symbols {
		u.Symbols = append(u.Symbols, contracts.SymbolRecord{Symbol: s, Type: "Common Stock"})
	}
	return u, nil
}

type fakeFetcher struct {
	metrics map[string]contracts.Metrics
	errs    map[string]error
	block   chan struct{} // when set, every fetch waits on it
	started chan struct{}

	calls    int32
	inFlight int32
	peak     int32
}

func (f *fakeFetcher) FetchMetrics(ctx context.Context, symbol string) (*contracts.Metrics, error) {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
			break
		}
	}

	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	m, ok := f.metrics[symbol]
	if !ok {
		return nil, contracts.ErrMissingField
	}
	return &m, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.err
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeScreener struct {
	rows   []contracts.Metrics
	failed int
	err    error
}

func (f *fakeScreener) Screen(ctx context.Context) (*contracts.ScreenResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.ScreenResult{Metrics: f.rows, Failed: f.failed}, nil
}

type countingRecorder struct {
	mu             sync.Mutex
	outcomes       []string
	symbolErrors   int
	notifyFailures int
}

func (r *countingRecorder) RecordScan(outcome string, _ time.Duration, _ int, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) RecordSymbolErrors(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbolErrors += n
}

func (r *countingRecorder) RecordNotifyFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifyFailures++
}

var errUpstream = errors.New("upstream unavailable")

func metricsFor(symbol string, price, reference float64) contracts.Metrics {
	return contracts.Metrics{
		Symbol:         symbol,
		Price:          contracts.Float(price),
		Reference:      contracts.Float(reference),
		Volume:         contracts.Int(2_000_000),
		RelativeVolume: contracts.Float(3),
		MarketCap:      contracts.Float(80),
	}
}
