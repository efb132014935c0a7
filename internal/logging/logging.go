package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Setup configures the global slog logger and returns it.
// Console output goes to w through tint. If logOutputDir is non-empty, a
// timestamped JSON log file is written there as well; the returned closer
// closes it and is a no-op otherwise.
func Setup(w io.Writer, levelStr string, logOutputDir string) (*slog.Logger, io.Closer, error) {
	level := parseLogLevel(levelStr)

	consoleHandler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})

	if logOutputDir == "" {
		logger := slog.New(consoleHandler)
		slog.SetDefault(logger)
		return logger, nopCloser{}, nil
	}

	logDir := os.ExpandEnv(logOutputDir)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	logFilePath := filepath.Join(logDir, fmt.Sprintf("carc_%s.log", timestamp))

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}

	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})

	logger := slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
	slog.SetDefault(logger)

	logger.Debug("logging to file", "path", logFilePath)
	return logger, logFile, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
