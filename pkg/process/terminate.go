package process

import (
	"github.com/shirou/gopsutil/v3/process"

	"github.com/core-tools/hsu-webber/pkg/errors"
	"github.com/core-tools/hsu-webber/pkg/logging"
)

// TerminateTree forcibly kills pid and every descendant of it. Descendants
// are collected before anything is killed because orphans get reparented.
func TerminateTree(pid int, logger logging.Logger) error {
	if pid <= 0 {
		return errors.NewValidationError("invalid PID", nil).WithContext("pid", pid)
	}

	descendants := collectDescendants(int32(pid), logger)

	collection := errors.NewErrorCollection()
	if err := killProcessGroup(pid); err != nil {
		collection.Add(errors.NewProcessError("failed to kill process group", err).WithContext("pid", pid))
	}

	for _, child := range descendants {
		running, err := child.IsRunning()
		if err != nil || !running {
			continue
		}
		logger.Debugf("Killing descendant process, parent PID: %d, PID: %d", pid, child.Pid)
		if err := child.Kill(); err != nil {
			if running, _ := child.IsRunning(); running {
				collection.Add(errors.NewProcessError("failed to kill descendant", err).WithContext("pid", child.Pid))
			}
		}
	}

	return collection.ToError()
}

// IsRunning reports whether a process with pid exists
func IsRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, errors.NewValidationError("invalid PID", nil).WithContext("pid", pid)
	}
	return process.PidExists(int32(pid))
}

func collectDescendants(pid int32, logger logging.Logger) []*process.Process {
	root, err := process.NewProcess(pid)
	if err != nil {
		return nil
	}

	var result []*process.Process
	queue := []*process.Process{root}
	seen := map[int32]bool{pid: true}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := current.Children()
		if err != nil {
			// ErrorNoChildren is the common case
			continue
		}
		for _, child := range children {
			if seen[child.Pid] {
				continue
			}
			seen[child.Pid] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}

	if len(result) > 0 {
		logger.Debugf("Collected %d descendant processes of PID %d", len(result), pid)
	}
	return result
}
