package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/storage"
	"github.com/pstuifzand/zcode/internal/ui"
)

// maxBackupsShown limits the :backups list
const maxBackupsShown = 200

// handleBackupsCommand lists the backups newest first with a preview of
// what restoring each one would change
func (a *App) handleBackupsCommand() {
	backups, err := a.backups.ListBackups("")
	if err != nil {
		a.SetStatus(fmt.Sprintf("Failed to read backups: %v", err))
		return
	}
	if len(backups) == 0 {
		a.SetStatus("No backups found in " + a.backups.Dir())
		return
	}
	if len(backups) > maxBackupsShown {
		backups = backups[:maxBackupsShown]
	}

	items := make([]ui.PickerItem, len(backups))
	for i, b := range backups {
		target := b.OriginalFile
		if target == "" {
			target = b.BaseName + " (original path unknown)"
		} else {
			target = a.relPath(target)
		}
		items[i] = ui.PickerItem{Label: b.Timestamp.Format("2006-01-02 15:04:05"), Detail: target}
	}

	a.picker.Show("Backups (Enter restores)", items,
		func(i int) []diff.Line {
			return backupPreview(backups[i])
		},
		func(i int) {
			if err := backups[i].Restore(); err != nil {
				log.Printf("Restore failed: %v", err)
				a.SetStatus(err.Error())
				return
			}
			a.SetStatus(fmt.Sprintf("Restored %s from %s", a.relPath(backups[i].OriginalFile), backups[i].Timestamp.Format("2006-01-02 15:04:05")))
		})
}

// backupPreview diffs the current file against the backup, i.e. the
// change a restore would make
func backupPreview(b storage.BackupMetadata) []diff.Line {
	backup, err := os.ReadFile(b.FilePath)
	if err != nil {
		return []diff.Line{{Type: diff.LineSummary, Content: "Failed to read backup: " + err.Error()}}
	}
	if b.OriginalFile == "" {
		return []diff.Line{{Type: diff.LineSummary, Content: "No manifest, original path unknown"}}
	}

	current, err := os.ReadFile(b.OriginalFile)
	if err != nil && !os.IsNotExist(err) {
		return []diff.Line{{Type: diff.LineSummary, Content: err.Error()}}
	}
	hunks, _ := diff.Hunks(b.OriginalFile, string(current), string(backup), diff.DefaultOptions())
	if len(hunks) == 0 {
		return []diff.Line{{Type: diff.LineSummary, Content: "Identical to the current file"}}
	}
	return diff.BuildDiffLines(filepath.Base(b.OriginalFile), hunks)
}

func (a *App) relPath(path string) string {
	if rel, err := filepath.Rel(a.state.Root, path); err == nil && !filepath.IsAbs(rel) && len(rel) > 0 && rel[0] != '.' {
		return rel
	}
	return path
}
