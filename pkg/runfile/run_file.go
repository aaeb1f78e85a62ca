package runfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logging"
)

// Default name of the run files, giving webber.pid and webber.port
const DefaultAppName = "webber"

// RunFileConfig holds configuration for run file placement
type RunFileConfig struct {
	// Directory holding the run files. If empty, a per-user temp location is used
	Directory string `yaml:"directory,omitempty"`

	// Base name of the run files
	AppName string `yaml:"app_name,omitempty"`
}

// RunFileManager writes and reads the files that let other tools find a
// running server: its PID and its discovered port.
type RunFileManager struct {
	config RunFileConfig
	logger logging.Logger
}

// NewRunFileManager creates a new run file manager with the given configuration
func NewRunFileManager(config RunFileConfig, logger logging.Logger) *RunFileManager {
	if config.AppName == "" {
		config.AppName = DefaultAppName
	}
	if config.Directory == "" {
		config.Directory = filepath.Join(os.TempDir(), config.AppName+"-"+strconv.Itoa(os.Getuid()))
	}

	return &RunFileManager{
		config: config,
		logger: logger,
	}
}

func (m *RunFileManager) PIDFilePath() string {
	return filepath.Join(m.config.Directory, m.config.AppName+".pid")
}

func (m *RunFileManager) PortFilePath() string {
	return strings.TrimSuffix(m.PIDFilePath(), ".pid") + ".port"
}

// WritePIDFile writes the server PID
func (m *RunFileManager) WritePIDFile(pid int) error {
	if pid <= 0 {
		return errors.NewValidationError("invalid PID", nil).WithContext("pid", pid)
	}
	return m.writeNumber("PID", m.PIDFilePath(), pid)
}

// WritePortFile writes the discovered server port
func (m *RunFileManager) WritePortFile(port int) error {
	if port < 1 || port > 65535 {
		return errors.NewValidationError("invalid port", nil).WithContext("port", port)
	}
	return m.writeNumber("port", m.PortFilePath(), port)
}

// ReadPIDFile reads the PID of a running server
func (m *RunFileManager) ReadPIDFile() (int, error) {
	return m.readNumber("PID", m.PIDFilePath())
}

// ReadPortFile reads the port of a running server
func (m *RunFileManager) ReadPortFile() (int, error) {
	return m.readNumber("port", m.PortFilePath())
}

// Remove deletes both run files. Missing files are not an error.
func (m *RunFileManager) Remove() error {
	collection := errors.NewErrorCollection()
	for _, path := range []string{m.PIDFilePath(), m.PortFilePath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warnf("Failed to remove run file, path: %s, error: %v", path, err)
			collection.Add(errors.NewIOError("failed to remove run file", err).WithContext("path", path))
		}
	}
	if !collection.HasErrors() {
		m.logger.Debugf("Run files removed, directory: %s", m.config.Directory)
	}
	return collection.ToError()
}

func (m *RunFileManager) writeNumber(kind, path string, value int) error {
	m.logger.Debugf("Writing %s file, value: %d, path: %s", kind, value, path)

	if err := ValidateRunFileDirectory(path); err != nil {
		m.logger.Errorf("%s file directory validation failed, path: %s, error: %v", kind, path, err)
		return errors.NewIOError(kind+" file directory validation failed", err).WithContext("path", path)
	}

	content := fmt.Sprintf("%d\n", value)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		m.logger.Errorf("Failed to write %s file, value: %d, path: %s, error: %v", kind, value, path, err)
		return errors.NewIOError("failed to write "+kind+" file", err).WithContext("path", path)
	}

	m.logger.Infof("%s file written successfully, value: %d, path: %s", kind, value, path)
	return nil
}

func (m *RunFileManager) readNumber(kind, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewNotFoundError(kind+" file not found", err).WithContext("path", path)
		}
		return 0, errors.NewIOError("failed to read "+kind+" file", err).WithContext("path", path)
	}

	text := strings.TrimSpace(string(content))
	value, err := strconv.Atoi(text)
	if err != nil {
		m.logger.Errorf("Invalid content in %s file, path: %s, content: %s, error: %v", kind, path, text, err)
		return 0, errors.NewValidationError("invalid "+kind+" file content", err).
			WithContext("path", path).
			WithContext("content", text)
	}
	return value, nil
}

// ValidateRunFileDirectory makes sure the directory of path exists and is writable
func ValidateRunFileDirectory(path string) error {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.NewIOError("failed to access run file directory", err).WithContext("directory", dir)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIOError("failed to create run file directory", err).WithContext("directory", dir)
		}
	} else if !info.IsDir() {
		return errors.NewValidationError("run file path is not a directory", nil).WithContext("path", dir)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return errors.NewPermissionError("run file directory is not writable", err).WithContext("directory", dir)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}
