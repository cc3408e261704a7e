package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recsync/internal/middleware"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var logMap map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logMap))
	buf.Reset()
	return logMap
}

func TestContextHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := middleware.WithCorrelationID(context.Background(), "test-correlation-id")
	logger.InfoContext(ctx, "test message")

	assert.Equal(t, "test-correlation-id", decodeLine(t, &buf)["correlation_id"])
}

func TestContextHandler_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := WithAttrs(context.Background(), "key", "abc_en")
	ctx = WithAttrs(ctx, "codename", "green_tea")
	logger.InfoContext(ctx, "synced")

	line := decodeLine(t, &buf)
	assert.Equal(t, "abc_en", line["key"])
	assert.Equal(t, "green_tea", line["codename"])
}

func TestContextHandler_WithKeepsContextLookup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "router")

	ctx := middleware.WithCorrelationID(context.Background(), "cid")
	logger.InfoContext(ctx, "dispatch")

	line := decodeLine(t, &buf)
	assert.Equal(t, "router", line["component"])
	assert.Equal(t, "cid", line["correlation_id"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Equal(t, "shown", decodeLine(t, &buf)["msg"])
}
