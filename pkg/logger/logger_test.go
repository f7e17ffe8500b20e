package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pennyscan/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestNew_SetsGlobalLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"}, &buf)
			require.NotNil(t, log)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestJSONOutputCarriesServiceAndEnv(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "production", LogLevel: "info", LogFormat: "json"}, &buf)

	log.Info("scan completed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "scan completed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "pennyscan", entry["service"])
	assert.Equal(t, "production", entry["env"])
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}, &buf)

	log.Info("human readable")

	assert.True(t, strings.Contains(buf.String(), "human readable"))
}

func TestComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log := &Logger{zlog: zerolog.New(&buf)}

	log.Component("pipeline").WithFields(map[string]interface{}{
		"symbol":  "ABCD",
		"matches": 3,
	}).Debug("symbol evaluated")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "pipeline", entry["module"])
	assert.Equal(t, "ABCD", entry["symbol"])
	assert.Equal(t, float64(3), entry["matches"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := &Logger{zlog: zerolog.New(&buf)}

	log.WithError(errors.New("universe fetch failed")).Error("scan aborted")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "universe fetch failed", entry["error"])
	assert.Equal(t, "scan aborted", entry["message"])
}

func TestNop(t *testing.T) {
	// Must not panic
	Nop().WithField("k", "v").Info("discarded")
}
