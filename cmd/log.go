package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with timestamp formatting that writes to w
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// parseLogLevel maps a --log_level name onto a logger level. CRITICAL maps
// to the fatal level, which only filters; nothing here calls Fatal.
func parseLogLevel(name string) (log.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return log.DebugLevel, nil
	case "INFO":
		return log.InfoLevel, nil
	case "WARNING":
		return log.WarnLevel, nil
	case "ERROR":
		return log.ErrorLevel, nil
	case "CRITICAL":
		return log.FatalLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("invalid log level %q", name)
	}
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default()
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
