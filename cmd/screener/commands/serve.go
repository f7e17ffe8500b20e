package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pennyscan/internal/api"
	"github.com/wonny/pennyscan/internal/api/handlers"
	"github.com/wonny/pennyscan/internal/scheduler"
	"github.com/wonny/pennyscan/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and background scan schedule",
	Long: `Starts the long-running service.

This command:
- serves the HTTP endpoints
- schedules the scan job (SCAN_SCHEDULE, empty disables)
- schedules the keep-alive ping when PUBLIC_BASE_URL is set
- sweeps the in-process profile cache hourly when Redis is off

Endpoints:
  GET /         - liveness text
  GET /scan     - run one scan now, returns its outcome
  GET /health   - JSON health and job stats
  GET /metrics  - Prometheus metrics (METRICS_ENABLED)

Example:
  go run ./cmd/screener serve
  go run ./cmd/screener serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	cfg, log := a.cfg, a.log
	if servePort != "" {
		cfg.Port = servePort
	}

	// 1. Scheduler, in exchange time
	sched := scheduler.New(a.gate.Location(), log)
	if cfg.Scan.Schedule != "" {
		if err := sched.AddJob(jobs.NewScanJob(a.pipeline, cfg.Scan.Schedule, log)); err != nil {
			return fmt.Errorf("schedule scan: %w", err)
		}
	}
	if a.memCache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.memCache, log)); err != nil {
			return fmt.Errorf("schedule cache cleanup: %w", err)
		}
	}
	if url := cfg.KeepAliveURL(); url != "" {
		if err := sched.AddJob(jobs.NewKeepAliveJob(a.httpClient, url, cfg.KeepAlive.Schedule, log)); err != nil {
			return fmt.Errorf("schedule keep-alive: %w", err)
		}
	}

	// 2. HTTP
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = a.recorder.Handler()
	}
	scanHandler := handlers.NewScanHandler(a.pipeline, sched, a.source.Name(), log).
		WithTimeouts(cfg.Scan.Timeout, cfg.Scan.ResponseWait)
	server := api.New(cfg, log, api.NewRouter(scanHandler, metricsHandler, a.recorder, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	sched.Start()

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"jobs": sched.GetAllJobs(),
	}).Info("Scanner service started")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			sched.Stop()
			return err
		}
	}

	log.Info("Shutting down...")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
