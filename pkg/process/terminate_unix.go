//go:build !windows

package process

import (
	"syscall"
)

// killProcessGroup sends SIGKILL to the whole process group led by pid
func killProcessGroup(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if err == syscall.ESRCH {
		return nil
	}
	return err
}
