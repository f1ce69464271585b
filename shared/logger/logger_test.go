package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level, format string) (*Logger, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:      level,
		Format:     format,
		TimeFormat: time.RFC3339,
		writer:     output,
	})
	require.NoError(t, err)
	return logger, output
}

func TestNew(t *testing.T) {
	t.Run("json format emits structured entries", func(t *testing.T) {
		logger, output := newTestLogger(t, "debug", "json")

		logger.Debug("test debug message", slog.String("key", "value"))

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(output.Bytes(), &logEntry))

		assert.Equal(t, "DEBUG", logEntry["level"])
		assert.Equal(t, "test debug message", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
		assert.Contains(t, logEntry, "time")
	})

	t.Run("level filters lower severities", func(t *testing.T) {
		logger, output := newTestLogger(t, "warn", "json")

		logger.Info("info message")
		logger.Warn("warn message", slog.String("severity", "high"))

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		require.Len(t, lines, 1)

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &logEntry))
		assert.Equal(t, "WARN", logEntry["level"])
	})

	t.Run("text format uses tint", func(t *testing.T) {
		logger, output := newTestLogger(t, "info", "text")

		logger.Info("console test")

		// tint renders the level as INF
		assert.Contains(t, output.String(), "INF")
		assert.Contains(t, output.String(), "console test")
	})

	t.Run("source location", func(t *testing.T) {
		output := &bytes.Buffer{}
		logger, err := New(&Config{
			Level:        "info",
			Format:       "json",
			EnableSource: true,
			writer:       output,
		})
		require.NoError(t, err)

		logger.Info("message with source")

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(output.Bytes(), &logEntry))
		require.Contains(t, logEntry, "source")

		source := logEntry["source"].(map[string]interface{})
		assert.Contains(t, source, "file")
		assert.Contains(t, source, "line")
	})
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{level: "debug", expected: slog.LevelDebug},
		{level: "info", expected: slog.LevelInfo},
		{level: "warn", expected: slog.LevelWarn},
		{level: "warning", expected: slog.LevelWarn},
		{level: "error", expected: slog.LevelError},
		{level: "invalid", expected: slog.LevelInfo},
		{level: "", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestLogger_WithGroup(t *testing.T) {
	logger, output := newTestLogger(t, "info", "json")

	logger.WithGroup("request").Info("test message", slog.String("key", "value"))

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(output.Bytes(), &logEntry))

	require.Contains(t, logEntry, "request")
	group := logEntry["request"].(map[string]interface{})
	assert.Equal(t, "value", group["key"])
}

func TestLogger_With(t *testing.T) {
	logger, output := newTestLogger(t, "info", "json")

	logger.With(
		slog.String("service", "api"),
		slog.Int("version", 1),
	).Info("operation complete")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(output.Bytes(), &logEntry))

	assert.Equal(t, "api", logEntry["service"])
	assert.Equal(t, float64(1), logEntry["version"])
	assert.Equal(t, "operation complete", logEntry["msg"])
}
