// Package api contains helpers shared by the versioned API types.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// AppName names the configuration directory.
const AppName = "rulecat"

var (
	ErrIsDirectory  = errors.New("path is a directory")
	ErrNotRegular   = errors.New("not a regular file")
	ErrNoConfigHome = errors.New("$XDG_CONFIG_HOME and $HOME are unset")
)

// GetConfigPath returns the path to filename in the user's config directory:
// $XDG_CONFIG_HOME/rulecat, then ~/.config/rulecat, then a temp directory.
func GetConfigPath(filename string) string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, AppName, filename)
	}

	if usrHome, err := os.UserHomeDir(); err == nil && usrHome != "" {
		return filepath.Join(usrHome, ".config", AppName, filename)
	}

	tmpPath := filepath.Join(os.TempDir(), AppName, filename)

	slog.Warn("using temp config path",
		slog.String("path", tmpPath),
		slog.Any("error", ErrNoConfigHome),
	)

	return tmpPath
}

// ReadFile reads a regular file.
func ReadFile(path string) ([]byte, error) {
	err := checkRegular(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading user-supplied paths.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

func checkRegular(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	return nil
}

// WriteDefaultFile writes data to path unless a file already exists there.
// With force, an existing file is renamed to "<name>.<unixnano>.old" first.
// The returned bool reports whether data was written.
func WriteDefaultFile(path string, data []byte, force bool, kind string) (bool, error) {
	exists := false

	err := checkRegular(path)
	switch {
	case err == nil:
		exists = true
	case errors.Is(err, os.ErrNotExist):
	default:
		return false, err
	}

	log := slog.With(slog.String("type", kind), slog.String("path", path))

	if exists && !force {
		log.Debug("file exists, skipping write")

		return false, nil
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return false, fmt.Errorf("create directories: %w", err)
	}

	if exists {
		backupPath := fmt.Sprintf("%s.%d.old", path, time.Now().UnixNano())
		log.Info("backing up existing file", slog.String("backup", backupPath))

		err = os.Rename(path, backupPath)
		if err != nil {
			return false, fmt.Errorf("back up %s file: %w", kind, err)
		}
	}

	log.Info("write default file")

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return false, fmt.Errorf("write %s file: %w", kind, err)
	}

	return true, nil
}
