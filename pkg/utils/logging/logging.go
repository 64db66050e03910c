package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	loggerMutex   sync.RWMutex
)

// Default returns the process wide logger
func Default() *slog.Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process wide logger. It is called once by the CLI after flags are parsed.
func SetDefault(logger *slog.Logger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	defaultLogger = logger
	slog.SetDefault(logger)
}

type ctxLoggerKey struct{}

// With returns a copy of ctx carrying logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger stored in ctx, or the default logger
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}
