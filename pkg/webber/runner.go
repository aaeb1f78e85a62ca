package webber

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logging"
)

// DefaultShutdownTimeout bounds stop and cleanup at exit
const DefaultShutdownTimeout = 30 * time.Second

// Run starts app and keeps it running until a signal arrives, runDuration
// elapses or the server goes away on its own. It always shuts the app down.
func Run(ctx context.Context, app *App, runDuration time.Duration, logger logging.Logger) error {
	logger.Infof("Webber runner starting...")

	if runDuration > 0 {
		logger.Infof("Using RUN DURATION of %v", runDuration)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runDuration)
		defer cancel()
	}

	sig := make(chan os.Signal, 1)
	if runtime.GOOS == "windows" {
		signal.Notify(sig) // Unix signals not implemented on Windows
	} else {
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	}
	defer signal.Stop(sig)

	if err := app.Start(); err != nil {
		return errors.NewProcessError("failed to start webber", err)
	}

	serverGone := false
	select {
	case receivedSignal := <-sig:
		logger.Infof("Webber runner received signal: %v", receivedSignal)
	case <-ctx.Done():
		logger.Infof("Webber runner timed out")
	case <-app.Finished():
		logger.Warnf("Server run ended on its own")
		serverGone = true
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown did not complete: %v", err)
		return err
	}

	logger.Infof("Webber runner stopped")

	if serverGone {
		return errors.NewProcessError("server is not running", nil).WithContext("last_error", app.LastError())
	}
	return nil
}
