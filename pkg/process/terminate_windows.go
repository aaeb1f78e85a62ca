//go:build windows

package process

import (
	"os"
)

// killProcessGroup kills the process itself; Windows has no process group
// kill, descendants are handled by TerminateTree.
func killProcessGroup(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := p.Kill(); err != nil && err != os.ErrProcessDone {
		return err
	}
	return nil
}
