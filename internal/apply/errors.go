package apply

import (
	"errors"
	"fmt"

	"github.com/pstuifzand/zcode/internal/storage"
)

// ErrNoAcceptedHunks is returned when apply is requested but no hunk is accepted
var ErrNoAcceptedHunks = errors.New("no accepted hunks to apply")

// BackupFailedError means a file could not be snapshotted. Nothing was written.
type BackupFailedError struct {
	Path string
	Err  error
}

func (e *BackupFailedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("backup failed: %v", e.Err)
	}
	return fmt.Sprintf("backup of %s failed: %v", e.Path, e.Err)
}

func (e *BackupFailedError) Unwrap() error {
	return e.Err
}

// ApplyFailedError means reconstructing or writing Path failed. When
// backups were enabled the batch has been rolled back; Restore lists the
// paths the rollback could not bring back.
type ApplyFailedError struct {
	Path    string
	Err     error
	Restore *storage.RestorePartialError
}

func (e *ApplyFailedError) Error() string {
	msg := fmt.Sprintf("applying %s failed: %v", e.Path, e.Err)
	if e.Restore != nil {
		msg += "; " + e.Restore.Error()
	}
	return msg
}

func (e *ApplyFailedError) Unwrap() []error {
	if e.Restore != nil {
		return []error{e.Err, e.Restore}
	}
	return []error{e.Err}
}
