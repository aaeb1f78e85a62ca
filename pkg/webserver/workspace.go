package webserver

import (
	"os"

	"github.com/core-tools/hsu-webber/pkg/errors"
)

// Workspace is the per-run temporary directory handed to the server
type Workspace struct {
	Path string
}

// CreateWorkspace makes a fresh uniquely named directory under parent
func CreateWorkspace(parent, prefix string) (*Workspace, error) {
	path, err := os.MkdirTemp(parent, prefix)
	if err != nil {
		return nil, errors.NewIOError("failed to create temp directory", err).
			WithReason(errors.ReasonTempDirectoryNotCreated).
			WithContext("parent", parent)
	}
	return &Workspace{Path: path}, nil
}

// Remove deletes the workspace recursively. Removing a missing workspace
// is not an error.
func (w *Workspace) Remove() error {
	if err := os.RemoveAll(w.Path); err != nil {
		return errors.NewIOError("failed to delete temp directory", err).
			WithReason(errors.ReasonTempDirectoryNotDeleted).
			WithContext("path", w.Path)
	}
	return nil
}

func (w *Workspace) Exists() bool {
	_, err := os.Stat(w.Path)
	return err == nil
}
