package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/pipeline"
	"github.com/wonny/pennyscan/internal/scheduler"
	"github.com/wonny/pennyscan/pkg/logger"
)

// LivenessText is the fixed body of GET /
const LivenessText = "Live market scanner running."

// ScanStartedText answers GET /scan when the scan outlives the response wait
const ScanStartedText = "started: scan continues in background"

const (
	defaultScanTimeout  = 30 * time.Minute
	defaultResponseWait = 4 * time.Minute
)

// Scanner runs one scan invocation
type Scanner interface {
	Run(ctx context.Context, opts pipeline.Options) *contracts.ScanResult
	Running() bool
}

// JobStatsProvider exposes background job state for /health
type JobStatsProvider interface {
	GetJobStats() map[string]scheduler.JobStats
}

// ScanHandler serves the liveness, scan trigger and health endpoints
// ⭐ SSOT: HTTP surface of the scanner
type ScanHandler struct {
	scanner   Scanner
	jobs      JobStatsProvider
	source    string
	startedAt time.Time
	logger    *logger.Logger

	scanTimeout  time.Duration
	responseWait time.Duration
}

// NewScanHandler creates a new scan handler. jobs may be nil when no scheduler runs.
func NewScanHandler(scanner Scanner, jobs JobStatsProvider, source string, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		scanner:   scanner,
		jobs:      jobs,
		source:    source,
		startedAt: time.Now(),
		logger:    log.Component("api"),

		scanTimeout:  defaultScanTimeout,
		responseWait: defaultResponseWait,
	}
}

// WithTimeouts sets the deadline of an HTTP-triggered scan and how long
// GET /scan waits for it before answering ScanStartedText. Zero keeps the default.
func (h *ScanHandler) WithTimeouts(scan, wait time.Duration) *ScanHandler {
	if scan > 0 {
		h.scanTimeout = scan
	}
	if wait > 0 {
		h.responseWait = wait
	}
	return h
}

// Root returns a static liveness text
// GET /
func (h *ScanHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusOK, LivenessText)
}

// Scan starts one scan and returns its short summary when it finishes
// within the response wait, 202 with ScanStartedText otherwise.
// The scan is detached from the request: a client hangup does not cancel it.
// GET /scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.scanTimeout)

	done := make(chan *contracts.ScanResult, 1)
	go func() {
		defer cancel()
		result := h.scanner.Run(ctx, pipeline.Options{})

		h.logger.WithFields(map[string]interface{}{
			"outcome":  result.Outcome,
			"duration": result.Duration.String(),
		}).Debug("Scan requested over HTTP finished")

		done <- result
	}()

	select {
	case result := <-done:
		respondText(w, http.StatusOK, result.Summary())
	case <-time.After(h.responseWait):
		respondText(w, http.StatusAccepted, ScanStartedText)
	case <-r.Context().Done():
		h.logger.Debug("Scan client went away, scan continues")
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string                        `json:"status"`
	Service  string                        `json:"service"`
	Source   string                        `json:"source"`
	Scanning bool                          `json:"scanning"`
	Uptime   string                        `json:"uptime"`
	Jobs     map[string]scheduler.JobStats `json:"jobs,omitempty"`
}

// Health returns process health
// GET /health
func (h *ScanHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Service:  "pennyscan",
		Source:   h.source,
		Scanning: h.scanner.Running(),
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
	}
	if h.jobs != nil {
		resp.Jobs = h.jobs.GetJobStats()
	}

	respondJSON(w, http.StatusOK, resp)
}
