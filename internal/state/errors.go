package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pstuifzand/zcode/internal/apply"
	"github.com/pstuifzand/zcode/internal/diff"
	"github.com/pstuifzand/zcode/internal/executor"
	"github.com/pstuifzand/zcode/internal/parser"
)

// stderrTailLines is how much of stderr a provider error shows
const stderrTailLines = 10

// ProviderExitError is a provider that exited non-zero. Code is nil when
// the process was killed by a signal.
type ProviderExitError struct {
	Code       *int
	StderrTail string
}

func (e *ProviderExitError) Error() string {
	code := "signal"
	if e.Code != nil {
		code = fmt.Sprint(*e.Code)
	}
	if e.StderrTail == "" {
		return fmt.Sprintf("provider exited with %s", code)
	}
	return fmt.Sprintf("provider exited with %s: %s", code, e.StderrTail)
}

// displayFor converts an error from the core into what the Error mode shows
func displayFor(err error, installURL string) ErrorDisplay {
	var (
		exitErr     *ProviderExitError
		notFound    *executor.NotFoundError
		backupErr   *apply.BackupFailedError
		applyErr    *apply.ApplyFailedError
		execFailErr *executor.ExecFailedError
	)

	switch {
	case errors.As(err, &exitErr):
		code := "killed by signal"
		if exitErr.Code != nil {
			code = fmt.Sprintf("exit %d", *exitErr.Code)
		}
		msg := fmt.Sprintf("Command failed (%s)", code)
		if exitErr.StderrTail != "" {
			msg += ":\n" + exitErr.StderrTail
		}
		return ErrorDisplay{Title: "Provider Error", Message: msg}
	case errors.As(err, &notFound):
		return ErrorDisplay{
			Title:   "Provider Not Found",
			Message: fmt.Sprintf("%s is not installed or not on PATH", notFound.Binary),
			HelpURL: installURL,
		}
	case errors.As(err, &execFailErr):
		return ErrorDisplay{Title: "Execution Failed", Message: err.Error()}
	case errors.Is(err, parser.ErrParseFailed):
		return ErrorDisplay{Title: "Parse Error", Message: "Failed to parse provider output: " + err.Error()}
	case errors.Is(err, apply.ErrNoAcceptedHunks):
		return ErrorDisplay{Title: "Nothing To Apply", Message: "Accept at least one hunk before applying"}
	case errors.As(err, &backupErr):
		return ErrorDisplay{Title: "Backup Failed", Message: err.Error() + "\nNo files were changed."}
	case errors.As(err, &applyErr):
		msg := err.Error()
		if applyErr.Restore != nil {
			msg += "\nRestore these files manually from the backup directory:\n  " +
				strings.Join(applyErr.Restore.Paths(), "\n  ")
		}
		return ErrorDisplay{Title: "Apply Failed", Message: msg}
	case errors.Is(err, diff.ErrTimeout):
		return ErrorDisplay{Title: "Diff Timeout", Message: err.Error()}
	}
	return ErrorDisplay{Title: "Error", Message: err.Error()}
}
