package storage

import (
	"fmt"
	"strings"
)

// BackupError reports a file that could not be snapshotted
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup of %s failed: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

// RestoreFailure is one path that could not be restored
type RestoreFailure struct {
	Path string
	Err  error
}

// RestorePartialError lists every path a restore could not bring back.
// The operator has to recover those from the backup directory.
type RestorePartialError struct {
	Failures []RestoreFailure
}

func (e *RestorePartialError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s (%v)", f.Path, f.Err))
	}
	return "restore incomplete: " + strings.Join(parts, ", ")
}

// Paths returns the paths that were not restored
func (e *RestorePartialError) Paths() []string {
	paths := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		paths = append(paths, f.Path)
	}
	return paths
}
