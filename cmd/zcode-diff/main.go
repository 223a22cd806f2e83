package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/storage"
)

// jsonHunk is the --json form of a hunk
type jsonHunk struct {
	File      string       `json:"file"`
	StartLine int          `json:"start_line"`
	EndLine   int          `json:"end_line"`
	Header    string       `json:"header"`
	Added     int          `json:"added"`
	Removed   int          `json:"removed"`
	Lines     []jsonChange `json:"lines"`
}

type jsonChange struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
	Old     *int   `json:"old,omitempty"`
	New     *int   `json:"new,omitempty"`
}

type options struct {
	context   int
	summary   bool
	asJSON    bool
	backupDir string
}

func main() {
	var opts options
	pflag.IntVarP(&opts.context, "context", "U", diff.DefaultContextLines, "Number of context lines around each hunk")
	pflag.BoolVarP(&opts.summary, "summary", "s", false, "Summary only (hunk counts without lines)")
	pflag.BoolVar(&opts.asJSON, "json", false, "Print hunks as JSON")
	pflag.StringVar(&opts.backupDir, "backup-dir", "", "Backup directory (default: <user cache dir>/zcode/backups)")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: zcode-diff [options] <file>
       zcode-diff [options] <original> <proposed>

Shows the hunks zcode would present for review.

Single-file mode: diffs the newest backup of the file against the file
Two-file mode: diffs two specific files

Options:
`)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	args := pflag.Args()
	if len(args) < 1 || len(args) > 2 {
		pflag.Usage()
		os.Exit(1)
	}

	var err error
	if len(args) == 1 {
		err = diffAgainstBackup(os.Stdout, args[0], opts)
	} else {
		err = diffFiles(os.Stdout, args[0], args[1], opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// diffAgainstBackup shows what changed in path since its newest backup
func diffAgainstBackup(w io.Writer, path string, opts options) error {
	bm, err := storage.NewBackupManager(opts.backupDir)
	if err != nil {
		return err
	}
	backups, err := bm.ListBackups(path)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups of %s in %s", path, bm.Dir())
	}

	original, err := os.ReadFile(backups[0].FilePath)
	if err != nil {
		return err
	}
	current, err := readOptional(path)
	if err != nil {
		return err
	}
	if !opts.asJSON {
		fmt.Fprintf(w, "=== %s since backup of %s ===\n", path, backups[0].Timestamp.Format("2006-01-02 15:04:05"))
	}
	return printDiff(w, path, string(original), current, opts)
}

func diffFiles(w io.Writer, originalPath, proposedPath string, opts options) error {
	original, err := readOptional(originalPath)
	if err != nil {
		return err
	}
	proposed, err := readOptional(proposedPath)
	if err != nil {
		return err
	}
	return printDiff(w, proposedPath, original, proposed, opts)
}

// readOptional reads path, treating a missing file as empty
func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	return string(data), err
}

func printDiff(w io.Writer, path, original, proposed string, opts options) error {
	dopts := diff.DefaultOptions()
	dopts.ContextLines = opts.context
	hunks, err := diff.Hunks(path, original, proposed, dopts)
	if errors.Is(err, diff.ErrTimeout) {
		fmt.Fprintln(os.Stderr, "Warning: diff timed out, showing whole-file change")
	} else if err != nil {
		return err
	}

	switch {
	case opts.asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toJSON(hunks))
	case opts.summary:
		fmt.Fprintf(w, "%s: %d hunks, %s\n", path, len(hunks), diff.Summary(hunks))
	case len(hunks) == 0:
		fmt.Fprintln(w, "No changes")
	default:
		fmt.Fprint(w, diff.FormatUnified(path, hunks))
	}
	return nil
}

func toJSON(hunks []model.Hunk) []jsonHunk {
	out := make([]jsonHunk, 0, len(hunks))
	for _, h := range hunks {
		added, removed := h.Counts()
		jh := jsonHunk{
			File:      h.FilePath,
			StartLine: h.StartLine,
			EndLine:   h.EndLine,
			Header:    h.Header(),
			Added:     added,
			Removed:   removed,
		}
		for _, c := range h.Changes {
			jh.Lines = append(jh.Lines, jsonChange{
				Tag:     tagName(c.Tag),
				Content: c.Content,
				Old:     c.OldLineNum,
				New:     c.NewLineNum,
			})
		}
		out = append(out, jh)
	}
	return out
}

func tagName(t model.ChangeTag) string {
	switch t {
	case model.TagInsert:
		return "insert"
	case model.TagDelete:
		return "delete"
	}
	return "equal"
}
