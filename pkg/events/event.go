package events

import (
	"fmt"
	"time"

	"github.com/core-tools/hsu-webber/pkg/errors"
)

// Kind identifies a lifecycle notification
type Kind int

const (
	KindStarting Kind = iota
	KindStarted
	KindMessage
	KindError
	KindStopping
	KindStopped
)

func (k Kind) String() string {
	switch k {
	case KindStarting:
		return "starting"
	case KindStarted:
		return "started"
	case KindMessage:
		return "message"
	case KindError:
		return "error"
	case KindStopping:
		return "stopping"
	case KindStopped:
		return "stopped"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one lifecycle notification. Only the payload fields matching
// Kind are set: Port for Started, Line for Message, Reason and Message for
// Error.
type Event struct {
	Kind    Kind
	Port    int
	Line    string
	Reason  errors.Reason
	Message string
	Time    time.Time
}

func (e Event) String() string {
	switch e.Kind {
	case KindStarted:
		return fmt.Sprintf("started(%d)", e.Port)
	case KindMessage:
		return fmt.Sprintf("message(%q)", e.Line)
	case KindError:
		return fmt.Sprintf("error(%s)", e.Reason)
	default:
		return e.Kind.String()
	}
}
