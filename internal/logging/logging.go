package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config describes where log output goes and how much of it is kept.
type Config struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	Level string
	// FilePath is the log file location.
	FilePath string
	// MaxSizeMB caps the active log file before rotation.
	MaxSizeMB int
	// MaxFiles caps how many rotated files are retained.
	MaxFiles int
	// WriteToStderr tees output to stderr in addition to the file.
	WriteToStderr bool
}

// DefaultConfig logs at info to ~/.elemdex/logs/index.log, 10MB per file,
// five rotations kept, teed to stderr.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DebugConfig is DefaultConfig lowered to debug level.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup builds a JSON slog.Logger per cfg. The returned cleanup flushes
// and closes the log file; call it on shutdown.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if err := EnsureLogDir(); err != nil {
		return nil, nil, err
	}

	file, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = file
	if cfg.WriteToStderr {
		out = io.MultiWriter(file, os.Stderr)
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: LevelFromString(cfg.Level),
	}))

	cleanup := func() {
		file.Sync()
		file.Close()
	}
	return logger, cleanup, nil
}

// SetupDefault installs a debug-level logger as the slog default and
// returns its cleanup.
func SetupDefault() (func(), error) {
	logger, cleanup, err := Setup(DebugConfig())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// LevelFromString maps a config level name to slog.Level. Unrecognized
// names fall back to info.
func LevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}
