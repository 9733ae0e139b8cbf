package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogging(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWithWriter(Config{Level: "info", Format: "json", Service: "meal-planner"}, &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	FromContext(ctx).Info("plan generated", "days", 7)
	slog.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "plan generated", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "meal-planner", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, float64(7), entry["days"])
}

func TestRequestIDContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	id := GenerateRequestID()
	got, ok := RequestIDFromContext(WithRequestID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Config{Level: "DEBUG"}.LogLevel())
	assert.Equal(t, slog.LevelWarn, Config{Level: "warning"}.LogLevel())
	assert.Equal(t, slog.LevelInfo, Config{Level: "bogus"}.LogLevel())
}
