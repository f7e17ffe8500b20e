package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data sources selectable via DATA_SOURCE
const (
	SourceFinnhub = "finnhub" // per-symbol REST composition
	SourceFMP     = "fmp"     // server-side batch screener (JSON)
	SourceFinviz  = "finviz"  // server-side batch screener (HTML)
)

// ServerWriteTimeout bounds every HTTP response; GET /scan answers before it
const ServerWriteTimeout = 5 * time.Minute

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data
	DataSource string
	Finnhub    FinnhubConfig
	FMP        FMPConfig
	Finviz     FinvizConfig

	// Messaging
	Telegram TelegramConfig

	// Scanning
	Scan ScanConfig

	// Background tasks
	KeepAlive KeepAliveConfig

	// HTTP client
	HTTP HTTPConfig

	// Redis (optional profile cache)
	Redis RedisConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// FinnhubConfig holds Finnhub REST API configuration
type FinnhubConfig struct {
	APIKey   string
	BaseURL  string
	Exchange string
}

// FMPConfig holds Financial Modeling Prep configuration
type FMPConfig struct {
	APIKey  string
	BaseURL string
}

// FinvizConfig holds Finviz screener configuration
type FinvizConfig struct {
	BaseURL string
}

// TelegramConfig holds Telegram Bot API configuration
type TelegramConfig struct {
	BotToken   string
	ChatID     int64
	Enabled    bool
	MaxRetries int
	APIBaseURL string // tgbotapi endpoint format, e.g. https://api.telegram.org/bot%s/%s
}

// ScanConfig controls the scan pipeline and its schedule
type ScanConfig struct {
	ConfigPath      string        // YAML screen criteria; empty = built-in defaults
	Schedule        string        // cron expression for the internal scan job; empty disables it
	Workers         int           // per-symbol fetch concurrency
	ProfileCacheTTL time.Duration // 0 disables profile caching
	Timeout         time.Duration // deadline of a scan started over HTTP
	ResponseWait    time.Duration // how long GET /scan waits before answering "started"
}

// KeepAliveConfig controls the self-ping job
type KeepAliveConfig struct {
	PublicBaseURL string
	Path          string
	Schedule      string
}

// HTTPConfig holds outbound HTTP client configuration
type HTTPConfig struct {
	Timeout        time.Duration
	RequestsPerSec int // 0 = unlimited
	MaxRetries     int // used by universe/screener calls only
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	chatID, err := parseChatID(getEnvAny([]string{"TELEGRAM_CHAT_ID", "chat_id"}, ""))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "10000"),
		Env:  getEnv("ENV", "development"),

		DataSource: strings.ToLower(getEnv("DATA_SOURCE", SourceFinnhub)),

		Finnhub: FinnhubConfig{
			APIKey:   getEnv("FINNHUB_API_KEY", ""),
			BaseURL:  getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			Exchange: getEnv("FINNHUB_EXCHANGE", "US"),
		},

		FMP: FMPConfig{
			APIKey:  getEnv("FMP_API_KEY", ""),
			BaseURL: getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
		},

		Finviz: FinvizConfig{
			BaseURL: getEnv("FINVIZ_BASE_URL", "https://finviz.com"),
		},

		Telegram: TelegramConfig{
			BotToken:   getEnvAny([]string{"TELEGRAM_BOT_TOKEN", "bot_token"}, ""),
			ChatID:     chatID,
			Enabled:    getEnvAsBool("TELEGRAM_ENABLED", true),
			MaxRetries: getEnvAsInt("NOTIFY_MAX_RETRIES", 2),
			APIBaseURL: getEnv("TELEGRAM_API_ENDPOINT", "https://api.telegram.org/bot%s/%s"),
		},

		Scan: ScanConfig{
			ConfigPath:      getEnv("SCREEN_CONFIG", ""),
			Schedule:        getEnvAllowEmpty("SCAN_SCHEDULE", "@every 15m"),
			Workers:         getEnvAsInt("SCAN_WORKERS", 5),
			ProfileCacheTTL: getEnvAsDuration("PROFILE_CACHE_TTL", "24h"),
			Timeout:         getEnvAsDuration("SCAN_TIMEOUT", "30m"),
			ResponseWait:    getEnvAsDuration("SCAN_RESPONSE_WAIT", "4m"),
		},

		KeepAlive: KeepAliveConfig{
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
			Path:          getEnv("KEEPALIVE_PATH", "/"),
			Schedule:      getEnv("KEEPALIVE_SCHEDULE", "@every 10m"),
		},

		HTTP: HTTPConfig{
			Timeout:        getEnvAsDuration("HTTP_TIMEOUT", "10s"),
			RequestsPerSec: getEnvAsInt("REQUESTS_PER_SEC", 0),
			MaxRetries:     getEnvAsInt("HTTP_MAX_RETRIES", 3),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
// Missing credentials fail here, at startup, not deep inside a scan.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.DataSource {
	case SourceFinnhub:
		if c.Finnhub.APIKey == "" {
			return fmt.Errorf("FINNHUB_API_KEY is required for DATA_SOURCE=%s", c.DataSource)
		}
	case SourceFMP:
		if c.FMP.APIKey == "" {
			return fmt.Errorf("FMP_API_KEY is required for DATA_SOURCE=%s", c.DataSource)
		}
	case SourceFinviz:
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: %s, %s, %s", SourceFinnhub, SourceFMP, SourceFinviz)
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when TELEGRAM_ENABLED=true")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_ENABLED=true")
		}
	}

	if c.Telegram.MaxRetries < 0 {
		return fmt.Errorf("NOTIFY_MAX_RETRIES must be >= 0")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be >= 1")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Scan.Timeout <= 0 {
		return fmt.Errorf("SCAN_TIMEOUT must be positive")
	}
	if c.Scan.ResponseWait <= 0 || c.Scan.ResponseWait >= ServerWriteTimeout {
		return fmt.Errorf("SCAN_RESPONSE_WAIT must be positive and below %s", ServerWriteTimeout)
	}

	return nil
}

// KeepAliveURL returns the URL the self-ping job requests, or "" when disabled
func (c *Config) KeepAliveURL() string {
	if c.KeepAlive.PublicBaseURL == "" {
		return ""
	}
	path := c.KeepAlive.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.KeepAlive.PublicBaseURL + path
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes "unset" from "set to empty" so a schedule can be disabled
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// getEnvAny returns the first non-empty value among keys (legacy lower-case names included)
func getEnvAny(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func parseChatID(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("TELEGRAM_CHAT_ID must be a numeric chat id: %w", err)
	}
	return id, nil
}
