package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// MaxBackups is the number of user config backups kept.
	MaxBackups = 3

	// BackupSuffix separates the config file name from the backup timestamp.
	BackupSuffix = ".bak"
)

// SaveUserConfig writes c as the user configuration, backing up the
// previous file first. It returns the backup path, empty when there was
// nothing to back up.
func SaveUserConfig(c *Config) (string, error) {
	backup, err := BackupUserConfig()
	if err != nil {
		return "", err
	}
	if err := c.WriteYAML(GetUserConfigPath()); err != nil {
		return backup, err
	}
	slog.Info("user_config_saved",
		slog.String("path", GetUserConfigPath()),
		slog.String("backup", backup))
	return backup, nil
}

// BackupUserConfig copies the user config to a timestamped backup and
// prunes old backups. It returns an empty path when no user config exists.
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()
	if !UserConfigExists() {
		return "", nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	backupPath := fmt.Sprintf("%s%s.%s", configPath, BackupSuffix, time.Now().Format("20060102-150405.000000000"))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if err := pruneBackups(); err != nil {
		slog.Warn("config_backup_prune_failed", slog.String("error", err.Error()))
	}
	return backupPath, nil
}

// ListUserConfigBackups returns the user config backups, newest first.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	dir := filepath.Dir(configPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	prefix := filepath.Base(configPath) + BackupSuffix + "."
	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}

	// The timestamp suffix sorts chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

func pruneBackups() error {
	backups, err := ListUserConfigBackups()
	if err != nil {
		return err
	}
	if len(backups) <= MaxBackups {
		return nil
	}
	for _, backup := range backups[MaxBackups:] {
		_ = os.Remove(backup)
	}
	return nil
}
