package webber

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logcollection"
	"github.com/core-tools/hsu-webber/pkg/webserver"
)

// WebberConfig represents the top-level configuration file structure
type WebberConfig struct {
	Server  webserver.ServerConfig      `yaml:"server"`
	Client  ClientConfig                `yaml:"client"`
	Log     logcollection.ZapConfig     `yaml:"log"`
	Console logcollection.ConsoleConfig `yaml:"console"`

	// Pointer to distinguish unset (enabled) from false
	RunFiles *bool `yaml:"run_files,omitempty"`
}

// ClientConfig configures what is shown once the server is up
type ClientConfig struct {
	Title       string   `yaml:"title,omitempty"`
	Width       float64  `yaml:"width,omitempty"`
	Height      float64  `yaml:"height,omitempty"`
	URLs        []string `yaml:"urls,omitempty"`
	OpenBrowser bool     `yaml:"open_browser,omitempty"`
}

// Parameters exposes the client section as named and positional values
func (c ClientConfig) Parameters() Parameters {
	named := make(map[string]string)
	if c.Title != "" {
		named[ParamTitle] = c.Title
	}
	if c.Width > 0 {
		named[ParamWidth] = strconv.FormatFloat(c.Width, 'f', -1, 64)
	}
	if c.Height > 0 {
		named[ParamHeight] = strconv.FormatFloat(c.Height, 'f', -1, 64)
	}
	return NewParameters(named, append([]string(nil), c.URLs...))
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *WebberConfig {
	config := &WebberConfig{}
	setConfigDefaults(config)
	return config
}

// LoadConfigFromFile loads webber configuration from a YAML file
func LoadConfigFromFile(filename string) (*WebberConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	var config WebberConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}

	setConfigDefaults(&config)

	return &config, nil
}

// RunFilesEnabled reports whether pid and port files are written
func (c *WebberConfig) RunFilesEnabled() bool {
	return c.RunFiles == nil || *c.RunFiles
}

func setConfigDefaults(config *WebberConfig) {
	config.Server = config.Server.WithDefaults()

	defaultLog := logcollection.DefaultZapConfig()
	if config.Log.Level == "" {
		config.Log.Level = defaultLog.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = defaultLog.Format
	}
	if config.Log.Output == "" {
		config.Log.Output = defaultLog.Output
	}

	if config.Console.MaxLines <= 0 {
		config.Console.MaxLines = logcollection.DefaultConsoleMaxLines
	}
}
