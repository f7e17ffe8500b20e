package config

import (
	"testing"
	"time"
)

// setRequiredEnv sets the minimum environment for a valid default config
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "development")
	t.Setenv("DATA_SOURCE", "finnhub")
	t.Setenv("FINNHUB_API_KEY", "fh-test")
	t.Setenv("TELEGRAM_ENABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("SCAN_WORKERS", "")
	t.Setenv("HTTP_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "10000" {
		t.Errorf("Expected Port to be 10000, got %s", cfg.Port)
	}

	if cfg.Scan.Workers != 5 {
		t.Errorf("Expected Scan.Workers to be 5, got %d", cfg.Scan.Workers)
	}

	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("Expected HTTP.Timeout to be 10s, got %v", cfg.HTTP.Timeout)
	}

	if cfg.Telegram.ChatID != -100200300 {
		t.Errorf("Expected ChatID -100200300, got %d", cfg.Telegram.ChatID)
	}

	if cfg.Scan.Timeout != 30*time.Minute {
		t.Errorf("Expected Scan.Timeout to be 30m, got %v", cfg.Scan.Timeout)
	}

	if cfg.Scan.ResponseWait >= ServerWriteTimeout {
		t.Errorf("Expected Scan.ResponseWait below %v, got %v", ServerWriteTimeout, cfg.Scan.ResponseWait)
	}
}

func TestLoadLegacyLowercaseNames(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("bot_token", "999:legacy")
	t.Setenv("chat_id", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Telegram.BotToken != "999:legacy" {
		t.Errorf("Expected legacy bot token, got %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != 42 {
		t.Errorf("Expected legacy chat id 42, got %d", cfg.Telegram.ChatID)
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing finnhub key", map[string]string{"FINNHUB_API_KEY": ""}},
		{"missing fmp key", map[string]string{"DATA_SOURCE": "fmp", "FMP_API_KEY": ""}},
		{"unknown data source", map[string]string{"DATA_SOURCE": "yahoo"}},
		{"missing bot token", map[string]string{"TELEGRAM_BOT_TOKEN": "", "bot_token": ""}},
		{"missing chat id", map[string]string{"TELEGRAM_CHAT_ID": "", "chat_id": ""}},
		{"non-numeric chat id", map[string]string{"TELEGRAM_CHAT_ID": "@channel"}},
		{"invalid env", map[string]string{"ENV": "invalid"}},
		{"zero workers", map[string]string{"SCAN_WORKERS": "0"}},
		{"zero scan timeout", map[string]string{"SCAN_TIMEOUT": "0s"}},
		{"response wait past write timeout", map[string]string{"SCAN_RESPONSE_WAIT": "6m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := Load(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestTelegramDisabledSkipsCredentialCheck(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_ENABLED", "false")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("bot_token", "")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
}

func TestScanScheduleCanBeDisabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCAN_SCHEDULE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Scan.Schedule != "" {
		t.Errorf("Expected empty schedule, got %q", cfg.Scan.Schedule)
	}
}

func TestKeepAliveURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"", "/", ""},
		{"https://screener.onrender.com", "/", "https://screener.onrender.com/"},
		{"https://screener.onrender.com", "scan", "https://screener.onrender.com/scan"},
	}

	for _, tt := range tests {
		cfg := &Config{KeepAlive: KeepAliveConfig{PublicBaseURL: tt.base, Path: tt.path}}
		if got := cfg.KeepAliveURL(); got != tt.want {
			t.Errorf("KeepAliveURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}
