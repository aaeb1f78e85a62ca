package process

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logging"
)

type ExecutionConfig struct {
	ExecutablePath   string   `yaml:"executable_path"`
	Args             []string `yaml:"args,omitempty"`
	Environment      []string `yaml:"environment,omitempty"` // KEY=VALUE, applied on top of the inherited environment
	WorkingDirectory string   `yaml:"working_directory,omitempty"`
}

// Handle is a spawned child process together with the argument vector and
// environment it was started with. Output multiplexes stdout and stderr.
type Handle struct {
	Cmd    *exec.Cmd
	Output io.ReadCloser
	Args   []string
	Env    []string
}

// PID returns the process id, or 0 if the process never started
func (h *Handle) PID() int {
	if h == nil || h.Cmd == nil || h.Cmd.Process == nil {
		return 0
	}
	return h.Cmd.Process.Pid
}

// Wait blocks until the process exits. Output is left open so lines still
// buffered in the pipe can be drained; Close releases it.
func (h *Handle) Wait() (*os.ProcessState, error) {
	return h.Cmd.Process.Wait()
}

// Close releases the output pipe, unblocking any pending read
func (h *Handle) Close() error {
	err := h.Output.Close()
	if err != nil && errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// ExecuteFunc spawns a process for the given configuration
type ExecuteFunc func(ctx context.Context, execution ExecutionConfig, logger logging.Logger) (*Handle, error)

// Execute starts the configured executable with stdout and stderr combined
// into a single stream, in its own process group.
func Execute(ctx context.Context, execution ExecutionConfig, logger logging.Logger) (*Handle, error) {
	if ctx == nil {
		return nil, errors.NewValidationError("context cannot be nil", nil)
	}

	if err := ValidateExecutionConfig(execution); err != nil {
		logger.Errorf("Execution configuration validation failed, error: %v", err)
		return nil, errors.NewValidationError("invalid execution configuration", err)
	}

	if err := ensureExecutable(execution.ExecutablePath); err != nil {
		return nil, errors.NewPermissionError("failed to ensure process is executable", err).
			WithContext("executable_path", execution.ExecutablePath)
	}

	workDir := execution.WorkingDirectory
	if workDir == "" {
		absPath, err := filepath.Abs(execution.ExecutablePath)
		if err != nil {
			return nil, errors.NewIOError("failed to get absolute path", err).
				WithContext("executable_path", execution.ExecutablePath)
		}
		workDir = filepath.Dir(absPath)
	}

	env := MergeEnvironment(os.Environ(), execution.Environment)

	logger.Debugf("Executing process: executable path: '%s', args: %v, working directory: '%s'",
		execution.ExecutablePath, execution.Args, workDir)

	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("execution cancelled", err)
	}

	// Termination goes through TerminateTree, so the command is not bound to ctx
	cmd := exec.Command(execution.ExecutablePath, execution.Args...)
	cmd.Dir = workDir
	cmd.Env = env

	setupProcessAttributes(cmd)

	output, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.NewProcessError("failed to create output pipe", err).
			WithContext("executable_path", execution.ExecutablePath)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		_ = output.Close()
		return nil, errors.NewProcessError("failed to start the process", err).
			WithContext("executable_path", execution.ExecutablePath)
	}

	logger.Infof("Successfully executed process, PID: %d", cmd.Process.Pid)

	return &Handle{
		Cmd:    cmd,
		Output: output,
		Args:   append([]string{execution.ExecutablePath}, execution.Args...),
		Env:    env,
	}, nil
}

// ensureExecutable checks if a file is executable and makes it executable if it's not
func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewIOError("file does not exist", err).WithContext("path", path)
	}

	// Windows decides by extension
	if runtime.GOOS == "windows" {
		return nil
	}

	mode := info.Mode()
	if mode&0111 != 0 {
		return nil
	}

	// Unpacked distributions frequently lose the execute bit on the launcher scripts
	if err := os.Chmod(path, mode|0111); err != nil {
		return errors.NewPermissionError("failed to make file executable", err).WithContext("path", path)
	}
	return nil
}
