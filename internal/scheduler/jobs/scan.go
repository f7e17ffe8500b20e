package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/pipeline"
	"github.com/wonny/pennyscan/pkg/logger"
)

// Scanner is the part of the pipeline the scan job needs
type Scanner interface {
	Run(ctx context.Context, opts pipeline.Options) *contracts.ScanResult
}

// ScanJob triggers the scan pipeline on a schedule. The pipeline applies the
// market-hours gate itself, so a coarse schedule is fine.
type ScanJob struct {
	scanner  Scanner
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates a new scan job
func NewScanJob(scanner Scanner, schedule string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		scanner:  scanner,
		schedule: schedule,
		logger:   log.Component("scan_job"),
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "scan"
}

// Schedule returns the cron schedule
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan. A fetch error is already reported to the operator
// by the pipeline; it is returned only so job history records the failure.
func (j *ScanJob) Run(ctx context.Context) error {
	result := j.scanner.Run(ctx, pipeline.Options{})

	j.logger.WithField("outcome", result.Outcome).Debug(result.Summary())

	if result.Outcome == contracts.OutcomeFetchError {
		return fmt.Errorf("scan: %w", result.Err)
	}
	return nil
}
