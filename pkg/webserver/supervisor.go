package webserver

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logging"
	"github.com/core-tools/hsu-webber/pkg/process"
)

// Publisher receives the lifecycle notifications of a run. Implementations
// must not block; events.Bus queues delivery on its own goroutine.
type Publisher interface {
	OutputPublisher
	PublishStarting()
	PublishError(reason errors.Reason)
	PublishStopping()
	PublishStopped()
}

type TerminateFunc func(pid int, logger logging.Logger) error

type SupervisorOptions struct {
	// Defaults to process.Execute
	Execute process.ExecuteFunc
	// Defaults to process.TerminateTree
	Terminate TerminateFunc
	// Defaults to (*Workspace).Remove
	RemoveWorkspace func(*Workspace) error
}

// Supervisor runs the bundled server once: validate, spawn, watch output,
// stop, clean up. Every failure past Start becomes an Error notification.
type Supervisor struct {
	config    ServerConfig
	publisher Publisher
	logger    logging.Logger
	options   SupervisorOptions

	mutex     sync.Mutex
	state     State
	runID     string
	handle    *process.Handle
	reader    *OutputReader
	workspace *Workspace
	stopChan  chan struct{}
	done      chan struct{}
}

func NewSupervisor(config ServerConfig, publisher Publisher, logger logging.Logger, options SupervisorOptions) *Supervisor {
	if options.Execute == nil {
		options.Execute = process.Execute
	}
	if options.Terminate == nil {
		options.Terminate = process.TerminateTree
	}
	if options.RemoveWorkspace == nil {
		options.RemoveWorkspace = (*Workspace).Remove
	}

	return &Supervisor{
		config:    config.WithDefaults(),
		publisher: publisher,
		logger:    logger,
		options:   options,
		state:     StateIdle,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start fires Starting and runs the server in the background. A supervisor
// is single-use: Start fails with a conflict error unless it is idle.
func (s *Supervisor) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateIdle {
		return errors.NewConflictError("supervisor already started", nil).WithContext("state", string(s.state))
	}

	s.state = StateRunning
	s.runID = uuid.NewString()

	// Published under the lock so nothing can precede it
	s.publisher.PublishStarting()

	go s.run(logging.WithPrefix(s.logger, fmt.Sprintf("run-%s, ", s.runID[:8])))
	return nil
}

// Stop fires Stopping and forces the running server down. It does nothing
// unless the supervisor is running.
func (s *Supervisor) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateRunning {
		s.logger.Debugf("Stop ignored, state: %s", s.state)
		return
	}

	s.state = StateStopping
	s.publisher.PublishStopping()
	close(s.stopChan)
}

// Wait blocks until the run has finished, including cleanup. It returns
// immediately for a supervisor that was never started.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mutex.Lock()
	started := s.state != StateIdle
	s.mutex.Unlock()

	if !started {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return errors.NewCancelledError("wait for supervisor interrupted", ctx.Err())
	}
}

// StopAndWait stops the server and returns once Stopped has been published
func (s *Supervisor) StopAndWait(ctx context.Context) error {
	s.Stop()
	return s.Wait(ctx)
}

func (s *Supervisor) Info() Info {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	info := Info{
		State: s.state,
		RunID: s.runID,
	}
	if s.handle != nil {
		info.PID = s.handle.PID()
	}
	if s.reader != nil {
		info.Port = s.reader.Port()
	}
	if s.workspace != nil {
		info.Workspace = s.workspace.Path
	}
	return info
}

func (s *Supervisor) run(logger logging.Logger) {
	defer close(s.done)

	config, err := s.prepare(logger)
	if err != nil {
		s.fail(logger, err)
		return
	}

	workspace, err := CreateWorkspace(config.ConfigDirectory, config.TempPrefix)
	if err != nil {
		s.fail(logger, err)
		return
	}
	logger.Debugf("Temp directory created, path: %s", workspace.Path)

	handle, err := s.spawn(logger, config, workspace)
	if err != nil {
		if removeErr := s.options.RemoveWorkspace(workspace); removeErr != nil {
			logger.Warnf("Failed to remove temp directory after failed start, error: %v", removeErr)
		}
		s.fail(logger, err)
		return
	}

	reader := NewOutputReader(outputGate{s}, logger)

	s.mutex.Lock()
	s.handle = handle
	s.reader = reader
	s.workspace = workspace
	s.mutex.Unlock()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		reader.Run(handle.Output)
	}()

	s.waitForExit(logger, handle)
	s.drainOutput(logger, handle, readerDone, config.OutputDrainTimeout)

	if err := s.options.RemoveWorkspace(workspace); err != nil {
		logger.Errorf("Failed to delete temp directory, path: %s, error: %v", workspace.Path, err)
		s.publisher.PublishError(errors.ReasonTempDirectoryNotDeleted)
	}

	s.mutex.Lock()
	s.state = StateStopped
	s.handle = nil
	s.workspace = nil
	s.publisher.PublishStopped()
	s.mutex.Unlock()

	logger.Infof("Server stopped")
}

// prepare resolves and validates everything needed before a workspace exists
func (s *Supervisor) prepare(logger logging.Logger) (ServerConfig, error) {
	config := s.config

	if err := ValidateServerConfig(config); err != nil {
		return config, errors.NewValidationError("invalid server configuration", err).
			WithReason(errors.ReasonStartFailed)
	}

	base, err := ResolveBaseDirectory(config.BaseDirectory)
	if err != nil {
		return config, err
	}
	config.BaseDirectory = base

	if err := ValidateLayout(config); err != nil {
		return config, err
	}

	configDir, err := ResolveConfigDirectory(config.ConfigDirectory)
	if err != nil {
		return config, err
	}
	config.ConfigDirectory = configDir

	logger.Debugf("Server layout validated, base: %s, launcher: %s, config: %s",
		config.BaseDirectory, config.ExecutablePath(), config.ConfigDirectory)
	return config, nil
}

func (s *Supervisor) spawn(logger logging.Logger, config ServerConfig, workspace *Workspace) (*process.Handle, error) {
	env, err := BuildEnvironment(config, workspace)
	if err != nil {
		return nil, err
	}

	handle, err := s.options.Execute(context.Background(), process.ExecutionConfig{
		ExecutablePath: config.ExecutablePath(),
		Args:           []string{config.RunArgument},
		Environment:    env,
	}, logger)
	if err != nil {
		return nil, errors.NewProcessError("failed to start server", err).
			WithReason(errors.ReasonStartFailed).
			WithContext("executable_path", config.ExecutablePath())
	}

	logger.Infof("Server process started, PID: %d", handle.PID())
	return handle, nil
}

// waitForExit blocks until the process is gone. A stop request is the only
// cancellation point; it kills the process tree.
func (s *Supervisor) waitForExit(logger logging.Logger, handle *process.Handle) {
	exited := make(chan *os.ProcessState, 1)
	go func() {
		state, err := handle.Wait()
		if err != nil {
			logger.Warnf("Failed to wait for server process, error: %v", err)
		}
		exited <- state
	}()

	select {
	case state := <-exited:
		logger.Warnf("Server process exited on its own, state: %v", state)

		s.mutex.Lock()
		if s.state == StateRunning {
			s.state = StateStopping
			s.publisher.PublishError(errors.ReasonStoppedUnexpectedly)
			s.publisher.PublishStopping()
		}
		s.mutex.Unlock()

		// Orphans left in the group would keep the output open
		if err := s.options.Terminate(handle.PID(), logger); err != nil {
			logger.Debugf("Failed to reap leftover processes, error: %v", err)
		}

	case <-s.stopChan:
		logger.Infof("Stop requested, terminating server process, PID: %d", handle.PID())
		if err := s.options.Terminate(handle.PID(), logger); err != nil {
			logger.Errorf("Failed to terminate server process, PID: %d, error: %v", handle.PID(), err)
		}
		<-exited
	}
}

func (s *Supervisor) drainOutput(logger logging.Logger, handle *process.Handle, readerDone <-chan struct{}, timeout time.Duration) {
	select {
	case <-readerDone:
	case <-time.After(timeout):
		// Something outside the process group still holds the pipe
		logger.Warnf("Output not drained within %v, closing it", timeout)
		if err := handle.Close(); err != nil {
			logger.Warnf("Failed to close server output, error: %v", err)
		}
		<-readerDone
	}

	if err := handle.Close(); err != nil {
		logger.Warnf("Failed to close server output, error: %v", err)
	}
}

// outputGate keeps a late port announcement from following Stopping
type outputGate struct {
	s *Supervisor
}

func (g outputGate) PublishStarted(port int) {
	g.s.mutex.Lock()
	defer g.s.mutex.Unlock()

	if g.s.state != StateRunning {
		g.s.logger.Debugf("Port announced after stop began, not publishing, port: %d", port)
		return
	}
	g.s.publisher.PublishStarted(port)
}

func (g outputGate) PublishMessage(line string) {
	g.s.publisher.PublishMessage(line)
}

// fail ends a run that never got a process; Stopped is not published
func (s *Supervisor) fail(logger logging.Logger, err error) {
	reason := errors.ReasonOf(err)
	if reason == errors.ReasonNone {
		reason = errors.ReasonStartFailed
	}
	logger.Errorf("Server start failed, reason: %s, error: %v", reason, err)

	s.mutex.Lock()
	s.state = StateStopped
	s.publisher.PublishError(reason)
	s.mutex.Unlock()
}
