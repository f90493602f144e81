package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONIncludesContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: LogFormatJSON, Output: &buf, ServiceName: "stride"})

	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithRequestID(ctx, "req-1")
	logger.InfoContext(ctx, "block moved", "block_id", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "block moved", record["msg"])
	assert.Equal(t, "stride", record["service"])
	assert.Equal(t, "corr-1", record[CorrelationIDKey])
	assert.Equal(t, "req-1", record[RequestIDKey])
	assert.Equal(t, "abc", record["block_id"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Output: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestContextIDs_GenerateWhenEmpty(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
