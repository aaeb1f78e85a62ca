package webserver

import (
	"os"
	"strings"

	"github.com/core-tools/hsu-webber/pkg/errors"
)

// ValidateServerConfig checks the static fields of a defaulted config
func ValidateServerConfig(config ServerConfig) error {
	if config.DistributionName == "" {
		return errors.NewValidationError("distribution name is required", nil)
	}
	if config.LauncherName == "" {
		return errors.NewValidationError("launcher name is required", nil)
	}
	if config.RunArgument == "" {
		return errors.NewValidationError("run argument is required", nil)
	}
	if strings.ContainsAny(config.TempPrefix, `/\`) {
		return errors.NewValidationError("temp prefix must not contain path separators", nil).
			WithContext("temp_prefix", config.TempPrefix)
	}
	if config.OutputDrainTimeout < 0 {
		return errors.NewValidationError("output drain timeout cannot be negative", nil)
	}
	return nil
}

// ValidateLayout verifies the distribution root, its bin directory and the
// launcher, in that order. BaseDirectory must already be resolved.
func ValidateLayout(config ServerConfig) error {
	if err := requireDirectory(config.DistributionRoot()); err != nil {
		return errors.NewNotFoundError("server distribution not found", err).
			WithReason(errors.ReasonDistributionNotFound).
			WithContext("path", config.DistributionRoot())
	}

	if err := requireDirectory(config.BinDirectory()); err != nil {
		return errors.NewNotFoundError("server bin directory not found", err).
			WithReason(errors.ReasonBinDirectoryNotFound).
			WithContext("path", config.BinDirectory())
	}

	info, err := os.Stat(config.ExecutablePath())
	if err != nil {
		return errors.NewNotFoundError("server launcher not found", err).
			WithReason(errors.ReasonExecutableNotFound).
			WithContext("path", config.ExecutablePath())
	}
	if !info.Mode().IsRegular() {
		return errors.NewNotFoundError("server launcher is not a regular file", nil).
			WithReason(errors.ReasonExecutableNotFound).
			WithContext("path", config.ExecutablePath())
	}
	return nil
}
