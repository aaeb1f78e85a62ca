package webserver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/events"
	"github.com/core-tools/hsu-webber/pkg/logging"
	"github.com/core-tools/hsu-webber/pkg/process"
)

const (
	portLine = `INFO: Starting ProtocolHandler ["http-bio-127.0.0.1-auto-1-8443"]`

	serverScript = "echo 'INFO: Initializing'\n" +
		"echo '" + portLine + "'\n" +
		"echo \"env $1 $CATALINA_HOME|$CATALINA_BASE|$CATALINA_TMPDIR\"\n" +
		"exec sleep 60\n"

	crashScript = "echo 'SEVERE: Address already in use' 1>&2\nexit 0\n"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell launchers are not available on windows")
	}
}

// newLayout builds <base>/apache-tomcat-7/bin/catalina.sh running script
func newLayout(t *testing.T, script string) ServerConfig {
	t.Helper()
	base := t.TempDir()
	bin := filepath.Join(base, DefaultDistributionName, "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "catalina.sh"), []byte("#!/bin/sh\n"+script), 0755))

	return ServerConfig{
		BaseDirectory:      base,
		ConfigDirectory:    filepath.Join(t.TempDir(), ".webber"),
		LauncherName:       "catalina.sh",
		OutputDrainTimeout: 5 * time.Second,
	}
}

func waitDone(t *testing.T, s *Supervisor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func workspaces(t *testing.T, configDir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(configDir, DefaultTempPrefix+"*"))
	require.NoError(t, err)
	return matches
}

func TestSupervisor_MissingArtifactFiresSingleError(t *testing.T) {
	tests := []struct {
		name   string
		config func(t *testing.T) ServerConfig
		reason errors.Reason
	}{
		{
			name: "base directory",
			config: func(t *testing.T) ServerConfig {
				return ServerConfig{BaseDirectory: filepath.Join(t.TempDir(), "missing"), ConfigDirectory: t.TempDir()}
			},
			reason: errors.ReasonBaseDirectoryNotFound,
		},
		{
			name: "distribution root",
			config: func(t *testing.T) ServerConfig {
				return ServerConfig{BaseDirectory: t.TempDir(), ConfigDirectory: t.TempDir()}
			},
			reason: errors.ReasonDistributionNotFound,
		},
		{
			name: "bin directory",
			config: func(t *testing.T) ServerConfig {
				base := t.TempDir()
				require.NoError(t, os.MkdirAll(filepath.Join(base, DefaultDistributionName), 0755))
				return ServerConfig{BaseDirectory: base, ConfigDirectory: t.TempDir()}
			},
			reason: errors.ReasonBinDirectoryNotFound,
		},
		{
			name: "launcher",
			config: func(t *testing.T) ServerConfig {
				base := t.TempDir()
				require.NoError(t, os.MkdirAll(filepath.Join(base, DefaultDistributionName, "bin"), 0755))
				return ServerConfig{BaseDirectory: base, ConfigDirectory: t.TempDir()}
			},
			reason: errors.ReasonExecutableNotFound,
		},
		{
			name: "config directory",
			config: func(t *testing.T) ServerConfig {
				config := newLayout(t, serverScript)
				blocker := filepath.Join(t.TempDir(), "file")
				require.NoError(t, os.WriteFile(blocker, nil, 0644))
				config.ConfigDirectory = filepath.Join(blocker, ".webber")
				return config
			},
			reason: errors.ReasonConfigDirectoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &recorder{}
			s := NewSupervisor(tt.config(t), publisher, logging.NewNopLogger(), SupervisorOptions{
				Execute: func(context.Context, process.ExecutionConfig, logging.Logger) (*process.Handle, error) {
					t.Error("no process may be spawned")
					return nil, errors.NewProcessError("unexpected spawn", nil)
				},
			})

			require.NoError(t, s.Start())
			waitDone(t, s)

			assert.Equal(t, []string{"starting", "error:" + string(tt.reason)}, publisher.all())
			assert.Equal(t, StateStopped, s.Info().State)
		})
	}
}

func TestSupervisor_SpawnFailure(t *testing.T) {
	config := newLayout(t, serverScript)
	publisher := &recorder{}

	s := NewSupervisor(config, publisher, logging.NewNopLogger(), SupervisorOptions{
		Execute: func(context.Context, process.ExecutionConfig, logging.Logger) (*process.Handle, error) {
			return nil, errors.NewProcessError("exec format error", nil)
		},
	})

	require.NoError(t, s.Start())
	waitDone(t, s)

	assert.Equal(t, []string{"starting", "error:" + string(errors.ReasonStartFailed)}, publisher.all())
	assert.Empty(t, workspaces(t, config.ConfigDirectory), "workspace of a failed start is removed")
}

func TestSupervisor_StartThenStop(t *testing.T) {
	skipOnWindows(t)

	config := newLayout(t, serverScript)
	publisher := &recorder{}
	s := NewSupervisor(config, publisher, logging.NewNopLogger(), SupervisorOptions{})

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return publisher.has("started:8443") }, 10*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(publisher.messages()) == 3 }, 10*time.Second, 10*time.Millisecond)

	info := s.Info()
	assert.Equal(t, StateRunning, info.State)
	assert.Equal(t, 8443, info.Port)
	assert.Positive(t, info.PID)
	assert.NotEmpty(t, info.RunID)
	require.NotEmpty(t, info.Workspace)
	assert.DirExists(t, info.Workspace)
	assert.Equal(t, config.ConfigDirectory, filepath.Dir(info.Workspace))

	s.Stop()
	waitDone(t, s)

	assert.Equal(t, []string{"starting", "started:8443", "stopping", "stopped"}, publisher.lifecycle())
	assert.NoDirExists(t, info.Workspace)
	assert.Equal(t, StateStopped, s.Info().State)

	running, err := process.IsRunning(info.PID)
	require.NoError(t, err)
	assert.False(t, running)

	root := filepath.Join(config.BaseDirectory, DefaultDistributionName)
	messages := publisher.messages()
	assert.Equal(t, "INFO: Initializing", messages[0])
	assert.Equal(t, portLine, messages[1])
	assert.Equal(t, "env run "+root+"|"+root+"|"+info.Workspace, messages[2])
}

func TestSupervisor_UnexpectedExit(t *testing.T) {
	skipOnWindows(t)

	config := newLayout(t, crashScript)
	publisher := &recorder{}
	s := NewSupervisor(config, publisher, logging.NewNopLogger(), SupervisorOptions{})

	require.NoError(t, s.Start())
	waitDone(t, s)

	assert.Equal(t, []string{
		"starting",
		"error:" + string(errors.ReasonStoppedUnexpectedly),
		"stopping",
		"stopped",
	}, publisher.lifecycle())
	assert.Equal(t, []string{"SEVERE: Address already in use"}, publisher.messages())
	assert.Empty(t, workspaces(t, config.ConfigDirectory))

	// Stop after the run is over does nothing
	s.Stop()
	assert.Len(t, publisher.lifecycle(), 4)
}

func TestSupervisor_UnexpectedExitReapsLeftovers(t *testing.T) {
	skipOnWindows(t)

	// The background sleep keeps the output pipe open after the launcher exits
	config := newLayout(t, "sleep 60 &\necho '"+portLine+"'\nexit 1\n")
	publisher := &recorder{}
	s := NewSupervisor(config, publisher, logging.NewNopLogger(), SupervisorOptions{})

	start := time.Now()
	require.NoError(t, s.Start())
	waitDone(t, s)

	assert.Less(t, time.Since(start), config.OutputDrainTimeout, "output drains once leftovers are killed")
	lifecycle := publisher.lifecycle()
	assert.Equal(t, "starting", lifecycle[0])
	assert.Equal(t, []string{"error:" + string(errors.ReasonStoppedUnexpectedly), "stopping", "stopped"}, lifecycle[len(lifecycle)-3:])
}

func TestSupervisor_CleanupFailureStillStops(t *testing.T) {
	skipOnWindows(t)

	config := newLayout(t, crashScript)
	publisher := &recorder{}
	s := NewSupervisor(config, publisher, logging.NewNopLogger(), SupervisorOptions{
		RemoveWorkspace: func(*Workspace) error {
			return errors.NewIOError("device busy", nil).WithReason(errors.ReasonTempDirectoryNotDeleted)
		},
	})

	require.NoError(t, s.Start())
	waitDone(t, s)

	assert.Equal(t, []string{
		"starting",
		"error:" + string(errors.ReasonStoppedUnexpectedly),
		"stopping",
		"error:" + string(errors.ReasonTempDirectoryNotDeleted),
		"stopped",
	}, publisher.lifecycle())
}

func TestSupervisor_SingleUse(t *testing.T) {
	skipOnWindows(t)

	publisher := &recorder{}
	s := NewSupervisor(newLayout(t, serverScript), publisher, logging.NewNopLogger(), SupervisorOptions{})

	require.NoError(t, s.Start())
	err := s.Start()
	assert.True(t, errors.IsConflictError(err))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, s.StopAndWait(ctx))

	assert.True(t, errors.IsConflictError(s.Start()))
	assert.Equal(t, "starting", publisher.lifecycle()[0])
	assert.Equal(t, 1, strings.Count(strings.Join(publisher.lifecycle(), ","), "starting"))
}

func TestSupervisor_StopBeforeStart(t *testing.T) {
	publisher := &recorder{}
	s := NewSupervisor(ServerConfig{}, publisher, logging.NewNopLogger(), SupervisorOptions{})

	s.Stop()
	assert.NoError(t, s.StopAndWait(context.Background()))
	assert.Empty(t, publisher.all())
	assert.Equal(t, StateIdle, s.Info().State)
}

func TestSupervisor_WaitInterrupted(t *testing.T) {
	skipOnWindows(t)

	s := NewSupervisor(newLayout(t, serverScript), &recorder{}, logging.NewNopLogger(), SupervisorOptions{})
	require.NoError(t, s.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		assert.NoError(t, s.StopAndWait(ctx))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.Wait(ctx)
	assert.True(t, errors.IsCancelledError(err))
}

func TestSupervisor_StopAndWaitWithBus(t *testing.T) {
	skipOnWindows(t)

	bus := events.NewBus(logging.NewNopLogger())
	started := make(chan int, 1)
	bus.OnStarted(func(port int) { started <- port })

	var kinds []events.Kind
	bus.OnEvent(func(e events.Event) {
		if e.Kind != events.KindMessage {
			kinds = append(kinds, e.Kind)
		}
	})

	s := NewSupervisor(newLayout(t, serverScript), bus, logging.NewNopLogger(), SupervisorOptions{})
	require.NoError(t, s.Start())

	select {
	case port := <-started:
		assert.Equal(t, 8443, port)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not announce its port")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, s.StopAndWait(ctx))

	// Stopped is queued by the time StopAndWait returns; closing delivers it
	require.NoError(t, bus.Close(ctx))
	assert.Equal(t, []events.Kind{
		events.KindStarting,
		events.KindStarted,
		events.KindStopping,
		events.KindStopped,
	}, kinds)
}
