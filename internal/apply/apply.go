package apply

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/storage"
)

// Result describes a successful apply
type Result struct {
	FilesModified  []string
	BackupsCreated []string
	HunksApplied   int
}

// Applier writes accepted hunks to disk
type Applier struct {
	backups *storage.BackupManager
	write   func(path string, content []byte) error
}

// NewApplier creates an applier that snapshots into backups. A nil
// manager uses the default backup directory when backups are requested.
func NewApplier(backups *storage.BackupManager) *Applier {
	return &Applier{backups: backups, write: storage.AtomicWrite}
}

// ApplyAccepted writes the accepted hunks of every file in sorted path
// order. pending supplies the change type of each file so new files start
// from empty content.
//
// With createBackups set, all files are snapshotted first and any failure
// rolls every file back before an *ApplyFailedError is returned.
func (a *Applier) ApplyAccepted(hunks []model.Hunk, pending map[string]model.FileChange, createBackups bool) (*Result, error) {
	byPath := make(map[string][]model.Hunk)
	count := 0
	for _, h := range hunks {
		if h.Status != model.HunkAccepted {
			continue
		}
		byPath[h.FilePath] = append(byPath[h.FilePath], h)
		count++
	}
	if count == 0 {
		return nil, ErrNoAcceptedHunks
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var set *storage.BackupSet
	if createBackups {
		var err error
		if set, err = a.createBackups(paths); err != nil {
			return nil, err
		}
	}

	result := &Result{HunksApplied: count}
	if set != nil {
		result.BackupsCreated = set.BackupPaths()
	}

	log.Printf("Applying %d hunks to %d files", count, len(paths))
	for _, path := range paths {
		change, known := pending[path]
		if err := a.applyFile(path, byPath[path], change, known); err != nil {
			log.Printf("Apply failed for %s: %v", path, err)
			failure := &ApplyFailedError{Path: path, Err: err}
			if set != nil {
				if rerr := set.RestoreAll(); rerr != nil {
					log.Printf("Rollback incomplete: %v", rerr)
					errors.As(rerr, &failure.Restore)
				} else {
					set.Cleanup()
				}
			}
			return nil, failure
		}
		result.FilesModified = append(result.FilesModified, path)
	}

	return result, nil
}

func (a *Applier) createBackups(paths []string) (*storage.BackupSet, error) {
	if a.backups == nil {
		bm, err := storage.NewBackupManager("")
		if err != nil {
			return nil, &BackupFailedError{Err: err}
		}
		a.backups = bm
	}

	set, err := a.backups.CreateSet(paths)
	if err != nil {
		var be *storage.BackupError
		if errors.As(err, &be) {
			return nil, &BackupFailedError{Path: be.Path, Err: be.Err}
		}
		return nil, &BackupFailedError{Err: err}
	}
	return set, nil
}

func (a *Applier) applyFile(path string, hunks []model.Hunk, change model.FileChange, known bool) error {
	var original string
	if !known || change.Type != model.ChangeCreate {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		original = string(data)
	}

	content := Reconstruct(original, hunks)
	if known && original == "" && strings.TrimSuffix(change.ProposedContent, "\n") == content {
		content = change.ProposedContent
	}

	if known && change.Type == model.ChangeDelete && content == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		return nil
	}

	return a.write(path, []byte(content))
}
