package webber

import (
	"fmt"
	"net/url"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logcollection"
	"github.com/core-tools/hsu-webber/pkg/webserver"
)

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *WebberConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if err := webserver.ValidateServerConfig(config.Server); err != nil {
		return errors.NewValidationError("invalid server configuration", err)
	}

	if err := validateClientConfig(config.Client); err != nil {
		return errors.NewValidationError("invalid client configuration", err)
	}

	if _, err := logcollection.ParseLogLevel(config.Log.Level); err != nil {
		return errors.NewValidationError("invalid log configuration", err).WithContext("level", config.Log.Level)
	}
	switch config.Log.Format {
	case "json", "console":
	default:
		return errors.NewValidationError("invalid log format", nil).WithContext("format", config.Log.Format)
	}

	if config.Console.MaxLines < 0 {
		return errors.NewValidationError("console max lines cannot be negative", nil)
	}

	return nil
}

func validateClientConfig(config ClientConfig) error {
	if config.Width < 0 || config.Height < 0 {
		return errors.NewValidationError("window size cannot be negative", nil).
			WithContext("width", config.Width).
			WithContext("height", config.Height)
	}

	for i, raw := range config.URLs {
		u, err := url.Parse(raw)
		if err != nil {
			return errors.NewValidationError(fmt.Sprintf("invalid URL at index %d", i), err).WithContext("url", raw)
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.NewValidationError(fmt.Sprintf("URL at index %d must be absolute", i), nil).WithContext("url", raw)
		}
	}
	return nil
}
