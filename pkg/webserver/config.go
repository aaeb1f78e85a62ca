package webserver

import (
	"path/filepath"
	"runtime"
	"time"
)

const (
	DefaultDistributionName = "apache-tomcat-7"
	DefaultBinDirectoryName = "bin"
	DefaultRunArgument      = "run"
	DefaultTempPrefix       = "tomcat-"
	DefaultConfigDirName    = ".webber"

	DefaultOutputDrainTimeout = 5 * time.Second

	EnvCatalinaHome   = "CATALINA_HOME"
	EnvCatalinaBase   = "CATALINA_BASE"
	EnvCatalinaTmpDir = "CATALINA_TMPDIR"
)

// DefaultLauncherName returns the platform launcher script name
func DefaultLauncherName() string {
	if runtime.GOOS == "windows" {
		return "catalina.bat"
	}
	return "catalina.sh"
}

// ServerConfig describes where the bundled server lives and how it is run.
// Empty BaseDirectory and ConfigDirectory are resolved at start time.
type ServerConfig struct {
	BaseDirectory    string `yaml:"base_directory,omitempty"`
	ConfigDirectory  string `yaml:"config_directory,omitempty"`
	DistributionName string `yaml:"distribution_name,omitempty"`
	LauncherName     string `yaml:"launcher_name,omitempty"`
	RunArgument      string `yaml:"run_argument,omitempty"`
	TempPrefix       string `yaml:"temp_prefix,omitempty"`
	EnvironmentFile  string `yaml:"environment_file,omitempty"`

	// Upper bound for draining output after the process has gone
	OutputDrainTimeout time.Duration `yaml:"output_drain_timeout,omitempty"`
}

// WithDefaults returns a copy with every empty field set to its default
func (c ServerConfig) WithDefaults() ServerConfig {
	if c.DistributionName == "" {
		c.DistributionName = DefaultDistributionName
	}
	if c.LauncherName == "" {
		c.LauncherName = DefaultLauncherName()
	}
	if c.RunArgument == "" {
		c.RunArgument = DefaultRunArgument
	}
	if c.TempPrefix == "" {
		c.TempPrefix = DefaultTempPrefix
	}
	if c.OutputDrainTimeout <= 0 {
		c.OutputDrainTimeout = DefaultOutputDrainTimeout
	}
	return c
}

func (c ServerConfig) DistributionRoot() string {
	return filepath.Join(c.BaseDirectory, c.DistributionName)
}

func (c ServerConfig) BinDirectory() string {
	return filepath.Join(c.DistributionRoot(), DefaultBinDirectoryName)
}

func (c ServerConfig) ExecutablePath() string {
	return filepath.Join(c.BinDirectory(), c.LauncherName)
}
