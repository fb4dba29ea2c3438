package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFileName is the name of the active log file.
const LogFileName = "patclust.log"

// LogDir returns the log directory under dataDir.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// LogPath returns the active log file under dataDir.
func LogPath(dataDir string) string {
	return filepath.Join(LogDir(dataDir), LogFileName)
}

// FindLogFile returns explicit when set and present, else the log file
// under dataDir.
func FindLogFile(dataDir, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := LogPath(dataDir)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no log file found, run a command with --debug first.\nExpected at: %s", path)
}
