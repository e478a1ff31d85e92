package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
)

// InitLogger installs the process-wide logger. Level is one of debug, info,
// warn, error; anything else falls back to info. Only the first call wins.
func InitLogger(level ...string) {
	lvl := ""
	if len(level) > 0 {
		lvl = level[0]
	}
	loggerOnce.Do(func() {
		logger = newLogger(os.Stderr, lvl)
		slog.SetDefault(logger)
	})
}

// GetLogger returns the process-wide logger, initializing it with defaults
// when InitLogger was never called.
func GetLogger() *slog.Logger {
	InitLogger()
	return logger
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
