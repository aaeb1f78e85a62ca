package webserver

// State represents where a supervisor is in its single run
type State string

const (
	// StateIdle is the initial state before Start() is called
	StateIdle State = "idle"

	// StateRunning covers validation, spawn and the running server
	StateRunning State = "running"

	// StateStopping means a stop was requested or the server exited on its own
	StateStopping State = "stopping"

	// StateStopped is terminal; the supervisor cannot be started again
	StateStopped State = "stopped"
)

// Info is a point-in-time snapshot of a supervisor
type Info struct {
	State     State  `json:"state" yaml:"state"`
	RunID     string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	PID       int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`
	Workspace string `json:"workspace,omitempty" yaml:"workspace,omitempty"`
}
