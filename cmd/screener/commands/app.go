package commands

import (
	"fmt"

	"github.com/wonny/pennyscan/internal/cache"
	"github.com/wonny/pennyscan/internal/contracts"
	"github.com/wonny/pennyscan/internal/external/finnhub"
	"github.com/wonny/pennyscan/internal/external/finviz"
	"github.com/wonny/pennyscan/internal/external/fmp"
	"github.com/wonny/pennyscan/internal/external/telegram"
	"github.com/wonny/pennyscan/internal/metrics"
	"github.com/wonny/pennyscan/internal/pipeline"
	"github.com/wonny/pennyscan/internal/report"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/internal/screener"
	"github.com/wonny/pennyscan/internal/timegate"
	"github.com/wonny/pennyscan/pkg/config"
	"github.com/wonny/pennyscan/pkg/httputil"
	"github.com/wonny/pennyscan/pkg/logger"
	redisx "github.com/wonny/pennyscan/pkg/redis"
)

// app holds the wired components shared by serve, scan and check
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	screen     *screenconfig.Config
	screenHash string
	httpClient *httputil.Client
	gate       *timegate.Gate
	recorder   *metrics.Recorder
	redis      *redisx.Client
	memCache   *cache.MemoryCache // set when profiles are cached in-process
	source     pipeline.MetricsSource
	notifier   contracts.Notifier
	pipeline   *pipeline.Pipeline
}

type appOptions struct {
	dryRun bool // report to the log instead of Telegram
}

// loadConfig reads env config and the screen file, honoring global flags
func loadConfig() (*config.Config, *logger.Logger, *screenconfig.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if screenFile != "" {
		cfg.Scan.ConfigPath = screenFile
	}

	log := logger.New(cfg)

	screen, err := screenconfig.LoadOrDefault(cfg.Scan.ConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load screen config: %w", err)
	}
	return cfg, log, screen, nil
}

// newApp wires every component. Callers must call close.
func newApp(opts appOptions) (*app, error) {
	cfg, log, screen, err := loadConfig()
	if err != nil {
		return nil, err
	}

	hash, err := screenconfig.Hash(screen)
	if err != nil {
		return nil, fmt.Errorf("hash screen config: %w", err)
	}

	gate, err := timegate.New(screen.Window)
	if err != nil {
		return nil, fmt.Errorf("create time gate: %w", err)
	}

	rdb, err := redisx.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{
		cfg:        cfg,
		log:        log,
		screen:     screen,
		screenHash: hash,
		httpClient: httputil.New(cfg, log),
		gate:       gate,
		recorder:   metrics.New(),
		redis:      rdb,
	}

	a.source, err = newSource(cfg, screen, a.httpClient, a.profileCache(), log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.notifier = newNotifier(cfg, opts.dryRun, a.httpClient, log)

	a.pipeline = pipeline.New(
		gate,
		a.source,
		screener.NewEvaluator(screen.Criteria, log),
		report.NewFormatter(screen.Report, gate.Location()),
		a.notifier,
		log,
	).WithRecorder(a.recorder).WithConfigHash(hash)

	log.WithFields(map[string]interface{}{
		"source":       a.source.Name(),
		"config_hash":  hash,
		"redis":        rdb.Enabled(),
		"memory_cache": a.memCache != nil,
		"dry_run":      opts.dryRun,
	}).Info("Scanner wired")

	return a, nil
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}

// newSource selects the metrics source named by DATA_SOURCE
func newSource(cfg *config.Config, screen *screenconfig.Config, hc *httputil.Client, cache finnhub.ProfileCache, log *logger.Logger) (pipeline.MetricsSource, error) {
	switch cfg.DataSource {
	case config.SourceFinnhub:
		client := finnhub.NewClient(hc, cfg.Finnhub, log)
		return pipeline.NewRESTSource(
			finnhub.NewUniverseFetcher(client, screen.Universe, log),
			finnhub.NewMetricFetcher(client, screen, cache, cfg.Scan.ProfileCacheTTL, log),
			cfg.Scan.Workers,
			log,
		), nil
	case config.SourceFMP:
		return pipeline.NewBatchSource(config.SourceFMP, fmp.NewClient(hc, cfg.FMP, screen, log)), nil
	case config.SourceFinviz:
		return pipeline.NewBatchSource(config.SourceFinviz, finviz.NewClient(hc, cfg.Finviz, screen, log)), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

// newNotifier returns the Telegram notifier, or the log notifier when
// Telegram is disabled or this is a dry run
func newNotifier(cfg *config.Config, dryRun bool, hc *httputil.Client, log *logger.Logger) contracts.Notifier {
	if dryRun || !cfg.Telegram.Enabled {
		return telegram.NewLogNotifier(log)
	}
	return telegram.NewNotifier(hc, cfg.Telegram, log)
}

// profileCache prefers Redis, falls back to memory, and returns nil when
// PROFILE_CACHE_TTL is 0 so the fetcher skips caching
func (a *app) profileCache() finnhub.ProfileCache {
	switch {
	case a.cfg.Scan.ProfileCacheTTL <= 0:
		return nil
	case a.redis.Enabled():
		return redisx.NewCache(a.redis, "pennyscan")
	default:
		a.memCache = cache.NewMemoryCache(a.log)
		return a.memCache
	}
}
