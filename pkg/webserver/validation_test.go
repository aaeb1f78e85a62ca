package webserver

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-tools/hsu-webber/pkg/errors"
)

func TestServerConfig_Defaults(t *testing.T) {
	config := ServerConfig{BaseDirectory: "/opt/webber"}.WithDefaults()

	assert.Equal(t, DefaultDistributionName, config.DistributionName)
	assert.Equal(t, DefaultRunArgument, config.RunArgument)
	assert.Equal(t, DefaultTempPrefix, config.TempPrefix)
	assert.Equal(t, DefaultOutputDrainTimeout, config.OutputDrainTimeout)
	if runtime.GOOS == "windows" {
		assert.Equal(t, "catalina.bat", config.LauncherName)
	} else {
		assert.Equal(t, "catalina.sh", config.LauncherName)
	}

	assert.Equal(t, filepath.Join("/opt/webber", "apache-tomcat-7"), config.DistributionRoot())
	assert.Equal(t, filepath.Join("/opt/webber", "apache-tomcat-7", "bin"), config.BinDirectory())
	assert.Equal(t, filepath.Join("/opt/webber", "apache-tomcat-7", "bin", config.LauncherName), config.ExecutablePath())
}

func TestValidateServerConfig(t *testing.T) {
	assert.NoError(t, ValidateServerConfig(ServerConfig{}.WithDefaults()))

	bad := ServerConfig{TempPrefix: "tmp/"}.WithDefaults()
	assert.True(t, errors.IsValidationError(ValidateServerConfig(bad)))

	assert.True(t, errors.IsValidationError(ValidateServerConfig(ServerConfig{})))
}

func TestValidateLayout(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, base string)
		reason errors.Reason
	}{
		{
			name:   "missing distribution",
			setup:  func(t *testing.T, base string) {},
			reason: errors.ReasonDistributionNotFound,
		},
		{
			name: "missing bin directory",
			setup: func(t *testing.T, base string) {
				require.NoError(t, os.MkdirAll(filepath.Join(base, DefaultDistributionName), 0755))
			},
			reason: errors.ReasonBinDirectoryNotFound,
		},
		{
			name: "bin is a file",
			setup: func(t *testing.T, base string) {
				require.NoError(t, os.MkdirAll(filepath.Join(base, DefaultDistributionName), 0755))
				require.NoError(t, os.WriteFile(filepath.Join(base, DefaultDistributionName, "bin"), nil, 0644))
			},
			reason: errors.ReasonBinDirectoryNotFound,
		},
		{
			name: "missing launcher",
			setup: func(t *testing.T, base string) {
				require.NoError(t, os.MkdirAll(filepath.Join(base, DefaultDistributionName, "bin"), 0755))
			},
			reason: errors.ReasonExecutableNotFound,
		},
		{
			name: "launcher is a directory",
			setup: func(t *testing.T, base string) {
				require.NoError(t, os.MkdirAll(filepath.Join(base, DefaultDistributionName, "bin", "catalina.sh"), 0755))
			},
			reason: errors.ReasonExecutableNotFound,
		},
		{
			name: "complete",
			setup: func(t *testing.T, base string) {
				require.NoError(t, os.MkdirAll(filepath.Join(base, DefaultDistributionName, "bin"), 0755))
				require.NoError(t, os.WriteFile(filepath.Join(base, DefaultDistributionName, "bin", "catalina.sh"), nil, 0755))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			tt.setup(t, base)

			err := ValidateLayout(ServerConfig{BaseDirectory: base, LauncherName: "catalina.sh"}.WithDefaults())
			if tt.reason == errors.ReasonNone {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsNotFoundError(err))
			assert.Equal(t, tt.reason, errors.ReasonOf(err))
		})
	}
}

func TestResolveBaseDirectory(t *testing.T) {
	dir := t.TempDir()

	resolved, err := ResolveBaseDirectory(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(resolved))

	_, err = ResolveBaseDirectory(filepath.Join(dir, "missing"))
	assert.Equal(t, errors.ReasonBaseDirectoryNotFound, errors.ReasonOf(err))

	// The test binary's own directory always exists
	resolved, err = ResolveBaseDirectory("")
	require.NoError(t, err)
	assert.DirExists(t, resolved)
}

func TestResolveConfigDirectory(t *testing.T) {
	parent := t.TempDir()

	created, err := ResolveConfigDirectory(filepath.Join(parent, "nested", ".webber"))
	require.NoError(t, err)
	assert.DirExists(t, created)

	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	_, err = ResolveConfigDirectory(filepath.Join(blocker, ".webber"))
	assert.Equal(t, errors.ReasonConfigDirectoryNotFound, errors.ReasonOf(err))
}

func TestWorkspace(t *testing.T) {
	parent := t.TempDir()

	first, err := CreateWorkspace(parent, DefaultTempPrefix)
	require.NoError(t, err)
	second, err := CreateWorkspace(parent, DefaultTempPrefix)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, parent, filepath.Dir(first.Path))
	assert.Contains(t, filepath.Base(first.Path), DefaultTempPrefix)

	require.NoError(t, os.MkdirAll(filepath.Join(first.Path, "work", "Catalina"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(first.Path, "work", "Catalina", "SESSIONS.ser"), []byte("x"), 0644))

	require.NoError(t, first.Remove())
	assert.False(t, first.Exists())
	assert.NoDirExists(t, first.Path)
	assert.NoError(t, first.Remove(), "removing twice is harmless")
	assert.True(t, second.Exists())

	_, err = CreateWorkspace(filepath.Join(parent, "missing"), DefaultTempPrefix)
	assert.Equal(t, errors.ReasonTempDirectoryNotCreated, errors.ReasonOf(err))
}

func TestBuildEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "webber.env")
	require.NoError(t, os.WriteFile(envFile, []byte("JAVA_OPTS=-Xmx512m\nCATALINA_HOME=/wrong\n"), 0644))

	config := ServerConfig{BaseDirectory: "/opt/webber", EnvironmentFile: envFile}.WithDefaults()
	workspace := &Workspace{Path: "/home/u/.webber/tomcat-123"}

	env, err := BuildEnvironment(config, workspace)
	require.NoError(t, err)

	assert.Contains(t, env, "JAVA_OPTS=-Xmx512m")
	assert.Contains(t, env, EnvCatalinaHome+"="+config.DistributionRoot())
	assert.Contains(t, env, EnvCatalinaBase+"="+config.DistributionRoot())
	assert.Contains(t, env, EnvCatalinaTmpDir+"="+workspace.Path)
	assert.NotContains(t, env, "CATALINA_HOME=/wrong")

	config.EnvironmentFile = filepath.Join(dir, "missing.env")
	_, err = BuildEnvironment(config, workspace)
	assert.Equal(t, errors.ReasonStartFailed, errors.ReasonOf(err))
}
