package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestGetOrGenerateCorrelationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), CorrelatedIDKey, "abc-123")
	assert.Equal(t, "abc-123", GetOrGenerateCorrelationID(ctx))

	generated := GetOrGenerateCorrelationID(context.Background())
	assert.Len(t, generated, 36)

	empty := context.WithValue(context.Background(), CorrelatedIDKey, "")
	assert.NotEmpty(t, GetOrGenerateCorrelationID(empty))
}

func TestGetLoggerInstanceFromContext(t *testing.T) {
	stored := NewLoggerWithJSONOutput()
	ctx := context.WithValue(context.Background(), LoggerKeyForContext, stored)
	assert.Same(t, stored, GetLoggerInstanceFromContext(ctx, nil))

	fallback := NewLoggerWithJSONOutput()
	assert.NotSame(t, fallback, GetLoggerInstanceFromContext(context.Background(), fallback))

	assert.Same(t, fallback, GetLoggerInstanceFromContext(nil, fallback))
}

func TestNewFileSink(t *testing.T) {
	assert.Nil(t, newFileSink("  "))

	t.Setenv(LogFileMaxSizeEnvKey, "5")
	t.Setenv(LogFileMaxBackupsEnvKey, "bogus")

	sink := newFileSink(filepath.Join(t.TempDir(), "waitlist.log"))
	require.NotNil(t, sink)
	assert.Equal(t, 5, sink.MaxSize)
	assert.Equal(t, 7, sink.MaxBackups)
	assert.Equal(t, 14, sink.MaxAge)
	assert.True(t, sink.Compress)
}

func TestNewFileSink_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.log")
	sink := newFileSink(path)
	defer sink.Close()

	NewLogger(sink).Info("entry saved", "email", "ada@example.com")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"entry saved"`)
	assert.Contains(t, string(raw), `"email":"ada@example.com"`)
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	t.Setenv(LogLevelEnvKey, "warn")

	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
