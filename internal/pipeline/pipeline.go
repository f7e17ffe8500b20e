// Package pipeline runs one scan: gate, collect, evaluate, report, notify.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/report"
	"github.com/wonny/pennyscan/internal/screener"
	"github.com/wonny/pennyscan/internal/timegate"
	"github.com/wonny/pennyscan/pkg/logger"
)

// Recorder receives scan metrics
type Recorder interface {
	RecordScan(outcome string, duration time.Duration, matches int, completed bool)
	RecordSymbolErrors(n int)
	RecordNotifyFailure()
}

type nopRecorder struct{}

func (nopRecorder) RecordScan(string, time.Duration, int, bool) {}
func (nopRecorder) RecordSymbolErrors(int) {}
func (nopRecorder) RecordNotifyFailure() {}

// Options adjust a single invocation
type Options struct {
	Force bool // ignore the scan window (operator one-shot)
}

// Pipeline runs scans; at most one at a time
// ⭐ SSOT: the Gate → Collect → Evaluate → Report → Notify sequence lives here only
type Pipeline struct {
	gate       *timegate.Gate
	source     MetricsSource
	evaluator  *screener.Evaluator
	formatter  *report.Formatter
	notifier   contracts.Notifier
	recorder   Recorder
	logger     *logger.Logger
	configHash string
	now        func() time.Time
	running    atomic.Bool
}

// New creates a new pipeline
func New(
	gate *timegate.Gate,
	source MetricsSource,
	evaluator *screener.Evaluator,
	formatter *report.Formatter,
	notifier contracts.Notifier,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		gate:      gate,
		source:    source,
		evaluator: evaluator,
		formatter: formatter,
		notifier:  notifier,
		recorder:  nopRecorder{},
		logger:    log.Component("pipeline"),
		now:       time.Now,
	}
}

// WithRecorder sets the metrics recorder
func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// WithConfigHash tags scan logs with the screen config hash
func (p *Pipeline) WithConfigHash(hash string) *Pipeline {
	p.configHash = hash
	return p
}

// WithClock overrides the time source
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Running reports whether a scan is in progress
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run executes one invocation. It never panics on upstream failure; the
// outcome is always one of the contracts.Outcome values.
func (p *Pipeline) Run(ctx context.Context, opts Options) *contracts.ScanResult {
	start := time.Now()
	scanTime := p.now()

	// outside the window: no network calls at all
	if !opts.Force && !p.gate.IsWithinScanWindow(scanTime) {
		result := &contracts.ScanResult{Outcome: contracts.OutcomeOutsideWindow}
		p.finish(result, start)
		return result
	}

	if !p.running.CompareAndSwap(false, true) {
		result := &contracts.ScanResult{Outcome: contracts.OutcomeBusy, Err: contracts.ErrBusy}
		p.finish(result, start)
		return result
	}
	defer p.running.Store(false)

	log := p.logger.WithFields(map[string]interface{}{
		"source":      p.source.Name(),
		"config_hash": p.configHash,
		"forced":      opts.Force,
	})
	log.Info("Scan started")

	collection, err := p.source.Collect(ctx)
	if err == nil && ctx.Err() != nil {
		// per-symbol sources swallow cancellation as isolated failures
		err = fmt.Errorf("scan cancelled: %w", ctx.Err())
	}
	if err != nil {
		log.WithError(err).Error("Scan aborted: fetch failed")
		result := &contracts.ScanResult{
			Outcome: contracts.OutcomeFetchError,
			Message: p.formatter.FetchErrorNotice(scanTime),
			Err:     err,
		}
		if ctx.Err() == nil {
			result.Notified = p.notify(ctx, result.Message)
		}
		p.finish(result, start)
		return result
	}

	matches, _ := p.evaluator.EvaluateAll(collection.Metrics)
	scanReport := &contracts.ScanReport{
		ScanTime:     scanTime,
		Matches:      report.Sorted(matches),
		UniverseSize: collection.UniverseSize,
		Evaluated:    len(collection.Metrics),
		Failed:       collection.Failed,
	}
	p.recorder.RecordSymbolErrors(collection.Failed)

	result := &contracts.ScanResult{
		Outcome: contracts.OutcomeCompleted,
		Report:  scanReport,
		Message: p.formatter.BuildReport(*scanReport),
	}
	result.Notified = p.notify(ctx, result.Message)
	p.finish(result, start)
	return result
}

// notify delivers best-effort; failures are logged and counted, never returned
func (p *Pipeline) notify(ctx context.Context, text string) bool {
	if err := p.notifier.Notify(ctx, text); err != nil {
		p.recorder.RecordNotifyFailure()
		p.logger.WithError(err).Error("Notification failed")
		return false
	}
	return true
}

func (p *Pipeline) finish(result *contracts.ScanResult, start time.Time) {
	result.Duration = time.Since(start)
	completed := result.Outcome == contracts.OutcomeCompleted || result.Outcome == contracts.OutcomeFetchError
	p.recorder.RecordScan(string(result.Outcome), result.Duration, result.MatchCount(), completed)

	fields := map[string]interface{}{
		"outcome":  result.Outcome,
		"duration": result.Duration.String(),
	}
	if result.Report != nil {
		fields["universe"] = result.Report.UniverseSize
		fields["evaluated"] = result.Report.Evaluated
		fields["failed"] = result.Report.Failed
		fields["matches"] = len(result.Report.Matches)
		fields["notified"] = result.Notified
	}

	log := p.logger.WithFields(fields)
	if completed {
		log.Info(result.Summary())
	} else {
		log.Debug(result.Summary())
	}
}
