package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/storage"
)

type options struct {
	backupDir string
	index     int
	list      bool
	dryRun    bool
}

func main() {
	var opts options
	pflag.StringVar(&opts.backupDir, "backup-dir", "", "Backup directory (default: <user cache dir>/zcode/backups)")
	pflag.IntVarP(&opts.index, "index", "n", 0, "Restore the n-th newest backup of the file (0 is the newest)")
	pflag.BoolVarP(&opts.list, "list", "l", false, "List backups instead of restoring")
	pflag.BoolVar(&opts.dryRun, "dry-run", false, "Show what a restore would change without writing")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zcode-restore [options] <file>
       zcode-restore --list [file]

Restores a file from the backups zcode takes before applying changes.

Options:
`)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	args := pflag.Args()
	if len(args) > 1 || (len(args) == 0 && !opts.list) {
		pflag.Usage()
		os.Exit(1)
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}

	bm, err := storage.NewBackupManager(opts.backupDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.list {
		err = list(os.Stdout, bm, path)
	} else {
		err = restore(os.Stdout, bm, path, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func list(w io.Writer, bm *storage.BackupManager, path string) error {
	backups, err := bm.ListBackups(path)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Fprintf(w, "No backups in %s\n", bm.Dir())
		return nil
	}
	for i, b := range backups {
		original := b.OriginalFile
		if original == "" {
			original = b.BaseName + " (original path unknown)"
		}
		fmt.Fprintf(w, "%3d  %s  %s\n", i, b.Timestamp.Format("2006-01-02 15:04:05"), original)
	}
	return nil
}

func restore(w io.Writer, bm *storage.BackupManager, path string, opts options) error {
	backups, err := bm.ListBackups(path)
	if err != nil {
		return err
	}
	if opts.index < 0 || opts.index >= len(backups) {
		return fmt.Errorf("%s has %d backups, no backup %d", path, len(backups), opts.index)
	}
	b := backups[opts.index]

	backup, err := os.ReadFile(b.FilePath)
	if err != nil {
		return err
	}
	current, err := os.ReadFile(b.OriginalFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	hunks, _ := diff.Hunks(b.OriginalFile, string(current), string(backup), diff.DefaultOptions())
	if len(hunks) == 0 {
		fmt.Fprintf(w, "%s already matches the backup of %s\n", path, b.Timestamp.Format("2006-01-02 15:04:05"))
		return nil
	}

	name := filepath.Base(b.OriginalFile)
	if opts.dryRun {
		fmt.Fprint(w, diff.FormatUnified(name, hunks))
		return nil
	}
	if err := b.Restore(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Restored %s from %s (%s)\n", b.OriginalFile, b.Timestamp.Format("2006-01-02 15:04:05"), diff.Summary(hunks))
	return nil
}
