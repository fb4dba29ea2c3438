package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the log file.
	FilePath string
	// MaxSizeMB is the size in MB before rotation (default: 10).
	MaxSizeMB int
	// MaxFiles is the number of rotated files kept (default: 5).
	MaxFiles int
	// WriteToStderr tees the log to stderr.
	WriteToStderr bool
}

// DefaultConfig returns the file logging defaults for dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		Level:         "info",
		FilePath:      LogPath(dataDir),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// Setup creates a JSON logger writing to a rotating file. The returned
// cleanup closes the file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return slog.New(handler), cleanup, nil
}

// SetupDebug installs a debug-level file logger under dataDir as the
// default logger and returns its cleanup.
func SetupDebug(dataDir string) (func(), error) {
	cfg := DefaultConfig(dataDir)
	cfg.Level = "debug"

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	slog.Debug("debug_logging_enabled", slog.String("log_file", cfg.FilePath))
	return cleanup, nil
}

// SetupStderr installs a text logger on stderr at level as the default
// logger.
func SetupStderr(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts a level name to slog.Level, defaulting to info.
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}
