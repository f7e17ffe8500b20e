package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pennyscan/internal/external/telegram"
	"github.com/wonny/pennyscan/internal/pipeline"
	"github.com/wonny/pennyscan/internal/screenconfig"
	"github.com/wonny/pennyscan/pkg/config"
	"github.com/wonny/pennyscan/pkg/httputil"
	"github.com/wonny/pennyscan/pkg/logger"
)

func testConfig(source string) *config.Config {
	return &config.Config{
		DataSource: source,
		HTTP:       config.HTTPConfig{Timeout: time.Second},
		Scan:       config.ScanConfig{Workers: 3},
		Telegram:   config.TelegramConfig{Enabled: true, BotToken: "123:abc", ChatID: 42},
	}
}

func TestNewSource(t *testing.T) {
	screen, err := screenconfig.Default()
	require.NoError(t, err)

	tests := []struct {
		source string
		name   string
		rest   bool
	}{
		{config.SourceFinnhub, "rest", true},
		{config.SourceFMP, "fmp", false},
		{config.SourceFinviz, "finviz", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			cfg := testConfig(tt.source)
			src, err := newSource(cfg, screen, httputil.New(cfg, logger.Nop()), nil, logger.Nop())
			require.NoError(t, err)

			assert.Equal(t, tt.name, src.Name())
			_, isREST := src.(*pipeline.RESTSource)
			assert.Equal(t, tt.rest, isREST)
		})
	}
}

func TestNewSource_Unknown(t *testing.T) {
	screen, err := screenconfig.Default()
	require.NoError(t, err)
	cfg := testConfig("yahoo")

	_, err = newSource(cfg, screen, httputil.New(cfg, logger.Nop()), nil, logger.Nop())
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	cfg := testConfig(config.SourceFinnhub)
	hc := httputil.New(cfg, logger.Nop())

	_, isLog := newNotifier(cfg, true, hc, logger.Nop()).(*telegram.LogNotifier)
	assert.True(t, isLog, "dry run logs")

	_, isTelegram := newNotifier(cfg, false, hc, logger.Nop()).(*telegram.Notifier)
	assert.True(t, isTelegram)

	cfg.Telegram.Enabled = false
	_, isLog = newNotifier(cfg, false, hc, logger.Nop()).(*telegram.LogNotifier)
	assert.True(t, isLog, "disabled telegram logs")
}

func TestPrintScreen(t *testing.T) {
	screen, err := screenconfig.Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	printScreen(&buf, screen, "abc123")

	out := buf.String()
	assert.Contains(t, out, "09:30-16:00 America/New_York")
	assert.Contains(t, out, "Price     : < 5.00")
	assert.Contains(t, out, ">= 10.00% vs previous_close")
	assert.Contains(t, out, "Hash      : abc123")
}

func TestBounds(t *testing.T) {
	floor := 0.5
	assert.Equal(t, "< 5.00", bounds(nil, 5, false))
	assert.Equal(t, "<= 5.00", bounds(nil, 5, true))
	assert.Equal(t, ">= 0.50 and < 5.00", bounds(&floor, 5, false))
}
