package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/natefinch/lumberjack"
)

type contextKey string

var CorrelatedIDKey contextKey = "correlation_id"

const LoggerKeyForContext contextKey = "logger"

// LogLevelEnvKey selects the minimum level: debug, info, warn or error.
const LogLevelEnvKey = "LOG_LEVEL"

// LOG_FILE, when set, tees JSON output into a size-rotated file.
const (
	LogFileEnvKey           = "LOG_FILE"
	LogFileMaxSizeEnvKey    = "LOG_FILE_MAX_SIZE_MB"
	LogFileMaxBackupsEnvKey = "LOG_FILE_MAX_BACKUPS"
	LogFileMaxAgeEnvKey     = "LOG_FILE_MAX_AGE_DAYS"
)

var (
	fileSinkOnce sync.Once
	fileSink     *lumberjack.Logger
)

type Logger struct {
	*slog.Logger
}

func NewLoggerWithJSONOutput() *Logger {
	return NewLogger(output())
}

// NewLogger writes JSON records at the LOG_LEVEL threshold to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: ParseLevel(os.Getenv(LogLevelEnvKey)),
		})),
	}
}

func output() io.Writer {
	fileSinkOnce.Do(func() {
		fileSink = newFileSink(os.Getenv(LogFileEnvKey))
	})
	if fileSink == nil {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, fileSink)
}

// newFileSink returns nil for an empty path. output shares one sink across
// every logger in the process.
func newFileSink(path string) *lumberjack.Logger {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    envInt(LogFileMaxSizeEnvKey, 50),
		MaxBackups: envInt(LogFileMaxBackupsEnvKey, 7),
		MaxAge:     envInt(LogFileMaxAgeEnvKey, 14),
		Compress:   true,
	}
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// ParseLevel falls back to info for empty or unknown values.
func ParseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	id := GetOrGenerateCorrelationID(ctx)

	return &Logger{
		Logger: l.Logger.With(string(CorrelatedIDKey), id),
	}
}

func GetOrGenerateCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelatedIDKey); id != nil {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}

	return GenerateCorrelationID()
}

func GenerateCorrelationID() string {
	return uuid.New().String()
}

// GetLoggerInstanceFromContext returns the request logger stored by the router
// middleware, or fallbackLogger tagged with the context's correlation id.
func GetLoggerInstanceFromContext(ctx context.Context, fallbackLogger *Logger) *Logger {
	if ctx != nil {
		if logger := ctx.Value(LoggerKeyForContext); logger != nil {
			if l, ok := logger.(*Logger); ok {
				return l
			}
		}

		if fallbackLogger != nil {
			return fallbackLogger.WithCorrelationID(ctx)
		}
		return NewLoggerWithJSONOutput().WithCorrelationID(ctx)
	}

	if fallbackLogger != nil {
		return fallbackLogger
	}

	return NewLoggerWithJSONOutput()
}
