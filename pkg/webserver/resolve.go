package webserver

import (
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-webber/pkg/errors"
)

// ResolveBaseDirectory returns the absolute base directory. An empty
// configured value means the directory holding the running executable.
func ResolveBaseDirectory(configured string) (string, error) {
	dir := configured
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", errors.NewNotFoundError("failed to locate running executable", err).
				WithReason(errors.ReasonBaseDirectoryNotFound)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dir = filepath.Dir(exe)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.NewNotFoundError("failed to get absolute base directory", err).
			WithReason(errors.ReasonBaseDirectoryNotFound).
			WithContext("base_directory", dir)
	}

	if err := requireDirectory(abs); err != nil {
		return "", errors.NewNotFoundError("base directory not found", err).
			WithReason(errors.ReasonBaseDirectoryNotFound).
			WithContext("base_directory", abs)
	}
	return abs, nil
}

// ResolveConfigDirectory returns the absolute configuration directory,
// creating it if needed. An empty configured value means <home>/.webber.
func ResolveConfigDirectory(configured string) (string, error) {
	dir := configured
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.NewNotFoundError("failed to locate home directory", err).
				WithReason(errors.ReasonConfigDirectoryNotFound)
		}
		dir = filepath.Join(home, DefaultConfigDirName)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.NewNotFoundError("failed to get absolute config directory", err).
			WithReason(errors.ReasonConfigDirectoryNotFound).
			WithContext("config_directory", dir)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", errors.NewIOError("failed to create config directory", err).
			WithReason(errors.ReasonConfigDirectoryNotFound).
			WithContext("config_directory", abs)
	}
	if err := requireDirectory(abs); err != nil {
		return "", errors.NewNotFoundError("config directory not found", err).
			WithReason(errors.ReasonConfigDirectoryNotFound).
			WithContext("config_directory", abs)
	}
	return abs, nil
}

func requireDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.NewValidationError("not a directory", nil).WithContext("path", path)
	}
	return nil
}
