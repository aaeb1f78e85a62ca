package runfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logging"
)

func newManager(t *testing.T) *RunFileManager {
	return NewRunFileManager(RunFileConfig{Directory: t.TempDir()}, logging.NewNopLogger())
}

func TestNewRunFileManager_WithDefaults(t *testing.T) {
	manager := NewRunFileManager(RunFileConfig{}, logging.NewNopLogger())

	assert.Equal(t, DefaultAppName, manager.config.AppName)
	assert.NotEmpty(t, manager.config.Directory)
	assert.Equal(t, "webber.pid", filepath.Base(manager.PIDFilePath()))
	assert.Equal(t, "webber.port", filepath.Base(manager.PortFilePath()))
}

func TestRunFileManager_Paths(t *testing.T) {
	dir := t.TempDir()
	manager := NewRunFileManager(RunFileConfig{Directory: dir, AppName: "intranet"}, logging.NewNopLogger())

	assert.Equal(t, filepath.Join(dir, "intranet.pid"), manager.PIDFilePath())
	assert.Equal(t, filepath.Join(dir, "intranet.port"), manager.PortFilePath())
}

func TestRunFileManager_WriteAndRead(t *testing.T) {
	manager := newManager(t)

	require.NoError(t, manager.WritePIDFile(4242))
	require.NoError(t, manager.WritePortFile(8443))

	content, err := os.ReadFile(manager.PIDFilePath())
	require.NoError(t, err)
	assert.Equal(t, "4242\n", string(content))

	pid, err := manager.ReadPIDFile()
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	port, err := manager.ReadPortFile()
	require.NoError(t, err)
	assert.Equal(t, 8443, port)
}

func TestRunFileManager_WriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".webber")
	manager := NewRunFileManager(RunFileConfig{Directory: dir}, logging.NewNopLogger())

	require.NoError(t, manager.WritePortFile(8080))
	assert.FileExists(t, manager.PortFilePath())
}

func TestRunFileManager_InvalidValues(t *testing.T) {
	manager := newManager(t)

	assert.True(t, errors.IsValidationError(manager.WritePIDFile(0)))
	assert.True(t, errors.IsValidationError(manager.WritePortFile(70000)))
	assert.NoFileExists(t, manager.PIDFilePath())
}

func TestRunFileManager_ReadMissing(t *testing.T) {
	manager := newManager(t)

	_, err := manager.ReadPortFile()
	assert.True(t, errors.IsNotFoundError(err))
}

func TestRunFileManager_ReadInvalidContent(t *testing.T) {
	manager := newManager(t)
	require.NoError(t, os.WriteFile(manager.PortFilePath(), []byte("invalid-port"), 0644))

	_, err := manager.ReadPortFile()
	assert.True(t, errors.IsValidationError(err))
}

func TestRunFileManager_Remove(t *testing.T) {
	manager := newManager(t)
	require.NoError(t, manager.WritePIDFile(1))
	require.NoError(t, manager.WritePortFile(2))

	require.NoError(t, manager.Remove())
	assert.NoFileExists(t, manager.PIDFilePath())
	assert.NoFileExists(t, manager.PortFilePath())

	assert.NoError(t, manager.Remove(), "removing missing files is harmless")
}

func TestValidateRunFileDirectory(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ValidateRunFileDirectory(filepath.Join(dir, "webber.pid")))

	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	err := ValidateRunFileDirectory(filepath.Join(blocker, "webber.pid"))
	assert.True(t, errors.IsValidationError(err))
}
