package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir is ~/.elemdex/logs, or a temp-dir equivalent when the
// home directory cannot be resolved.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".elemdex", "logs")
}

// DefaultLogPath is the index log file inside DefaultLogDir.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "index.log")
}

// EnsureLogDir creates DefaultLogDir if missing.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
