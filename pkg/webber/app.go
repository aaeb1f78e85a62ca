package webber

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/events"
	"github.com/core-tools/hsu-webber/pkg/logcollection"
	"github.com/core-tools/hsu-webber/pkg/logging"
	"github.com/core-tools/hsu-webber/pkg/runfile"
	"github.com/core-tools/hsu-webber/pkg/webserver"
)

type AppOptions struct {
	// Status output, defaults to os.Stdout
	Out io.Writer
	// Opens a target in a browser; used only when the client asks for it
	OpenURL func(url string) error
	// Extra positional and named values, applied over the client section
	Parameters Parameters
	// Passed through to the supervisor
	Supervisor webserver.SupervisorOptions
}

// App wires one supervisor run to its observers: status display, console,
// run files and browser targets. Every observer runs on the bus goroutine.
type App struct {
	config     *WebberConfig
	params     Parameters
	options    AppOptions
	logger     logging.Logger
	backend    logcollection.StructuredLogger
	bus        *events.Bus
	supervisor *webserver.Supervisor
	console    *logcollection.Console
	status     *StatusDisplay
	runFiles   *runfile.RunFileManager

	mutex     sync.Mutex
	targets   []Target
	lastError string
	finished  chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
}

func NewApp(config *WebberConfig, options AppOptions, backend logcollection.StructuredLogger) (*App, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}

	logger := logcollection.NewLogger("webber, ", backend)
	params := mergeParameters(config.Client.Parameters(), options.Parameters)
	title := params.String(ParamTitle, DefaultTitle)

	var forward logcollection.StructuredLogger
	if config.Console.Forward {
		forward = backend
	}

	bus := events.NewBus(logcollection.NewLogger("events, ", backend))

	app := &App{
		config:   config,
		params:   params,
		options:  options,
		logger:   logger,
		backend:  backend,
		bus:      bus,
		console:  logcollection.NewConsole(config.Console.MaxLines, forward),
		status:   NewStatusDisplay(options.Out, title, DefaultStatusStyles()),
		finished: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	app.supervisor = webserver.NewSupervisor(config.Server, bus, logcollection.NewLogger("webserver, ", backend), options.Supervisor)

	if config.RunFilesEnabled() {
		if dir, err := webserver.ResolveConfigDirectory(config.Server.ConfigDirectory); err != nil {
			logger.Warnf("Run files disabled, config directory unavailable: %v", err)
		} else {
			app.runFiles = runfile.NewRunFileManager(runfile.RunFileConfig{Directory: dir}, logger)
		}
	}

	app.subscribe()
	return app, nil
}

func (a *App) subscribe() {
	a.bus.OnStarting(func() {
		if a.config.Console.Forward {
			a.console.SetForward(a.backend.WithFields(logcollection.RunID(a.supervisor.Info().RunID)))
		}
		a.status.SetStatus(StatusStarting)
	})

	a.bus.OnStarted(a.handleStarted)

	a.bus.OnMessage(a.console.CollectLine)

	a.bus.OnError(func(reason string) {
		a.mutex.Lock()
		a.lastError = reason
		a.mutex.Unlock()
		a.status.SetError(reason)
	})

	a.bus.OnStopped(func() {
		if a.runFiles != nil {
			if err := a.runFiles.Remove(); err != nil {
				a.logger.Warnf("Failed to remove run files: %v", err)
			}
		}
		a.stopOnce.Do(func() { close(a.stopped) })
	})

	a.bus.OnEvent(func(e events.Event) {
		if e.Kind == events.KindMessage {
			return
		}
		a.backend.LogWithFields(logcollection.InfoLevel, "Server lifecycle event",
			logcollection.String("event", e.Kind.String()),
			logcollection.String("detail", e.String()),
			logcollection.RunID(a.supervisor.Info().RunID),
			logcollection.Time("time", e.Time),
		)
	})
}

func (a *App) handleStarted(port int) {
	a.status.SetStatus(StatusStarted)

	targets := ResolveTargets(a.params, port)
	a.mutex.Lock()
	a.targets = targets
	a.mutex.Unlock()
	a.status.ShowTargets(targets)

	if a.runFiles != nil {
		if pid := a.supervisor.Info().PID; pid > 0 {
			if err := a.runFiles.WritePIDFile(pid); err != nil {
				a.logger.Warnf("Failed to write PID file: %v", err)
			}
		}
		if err := a.runFiles.WritePortFile(port); err != nil {
			a.logger.Warnf("Failed to write port file: %v", err)
		}
	}

	if a.config.Client.OpenBrowser && a.options.OpenURL != nil {
		for _, target := range targets {
			if err := a.options.OpenURL(target.URL); err != nil {
				a.logger.Warnf("Failed to open browser, url: %s, error: %v", target.URL, err)
			}
		}
	}
}

// Start starts the server; progress is reported through the observers
func (a *App) Start() error {
	if err := a.supervisor.Start(); err != nil {
		return err
	}
	go func() {
		_ = a.supervisor.Wait(context.Background())
		close(a.finished)
	}()
	return nil
}

// Shutdown stops the server, waits for cleanup and delivers every pending
// notification
func (a *App) Shutdown(ctx context.Context) error {
	collection := errors.NewErrorCollection()
	collection.Add(a.supervisor.StopAndWait(ctx))
	collection.Add(a.bus.Close(ctx))
	return collection.ToError()
}

// Finished is closed once the supervisor run is over, whatever the outcome
func (a *App) Finished() <-chan struct{} {
	return a.finished
}

// Stopped is closed once the Stopped notification has been delivered
func (a *App) Stopped() <-chan struct{} {
	return a.stopped
}

func (a *App) Targets() []Target {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return append([]Target(nil), a.targets...)
}

// LastError returns the most recent error message shown to the user
func (a *App) LastError() string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.lastError
}

func (a *App) Info() webserver.Info {
	return a.supervisor.Info()
}

func (a *App) Console() *logcollection.Console {
	return a.console
}

func (a *App) Status() *StatusDisplay {
	return a.status
}

func (a *App) RunFiles() *runfile.RunFileManager {
	return a.runFiles
}

func mergeParameters(base, overrides Parameters) Parameters {
	result := base
	for name, value := range overrides.Named {
		result = result.With(name, value)
	}
	if len(overrides.Unnamed) > 0 {
		result.Unnamed = append([]string(nil), overrides.Unnamed...)
	}
	return result
}
