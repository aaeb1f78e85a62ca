package logcollection

import (
	"github.com/core-tools/hsu-webber/pkg/logging"
)

// NewLogger exposes a structured backend through the plain logging.Logger
// interface used by the supervisor and its collaborators.
func NewLogger(prefix string, backend StructuredLogger) logging.Logger {
	return logging.NewLogger(prefix, logging.LogFuncs{
		Debugf: backend.Debugf,
		Infof:  backend.Infof,
		Warnf:  backend.Warnf,
		Errorf: backend.Errorf,
	})
}
