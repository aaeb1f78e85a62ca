package webber

import (
	"os/exec"
	"runtime"

	"github.com/core-tools/hsu-webber/pkg/errors"
)

// OpenBrowser opens url in the default browser without waiting for it
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return errors.NewValidationError("opening a browser is not supported on "+runtime.GOOS, nil)
	}

	if err := cmd.Start(); err != nil {
		return errors.NewProcessError("failed to open browser", err).WithContext("url", url)
	}
	go cmd.Wait()
	return nil
}
