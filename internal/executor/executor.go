// Package executor runs provider CLIs as child processes and captures
// their output
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Context tag keys attached to results
const (
	TagRequestType = "request_type"
	TagProvider    = "provider"
	TagProviderID  = "provider_id"
	TagDisplayName = "display_name"
	TagCLICommand  = "cli_command"
	TagConfigKey   = "config_key"

	RequestPrompt    = "prompt_execution"
	RequestDetection = "detection"
)

// Result is the outcome of a finished process
type Result struct {
	// ExitCode is nil when the process was terminated by a signal
	ExitCode *int
	Stdout   []byte
	Stderr   []byte
	// Context holds the tags passed to Execute, unchanged
	Context map[string]string
}

// Success reports whether the process exited with status 0
func (r *Result) Success() bool {
	return r.ExitCode != nil && *r.ExitCode == 0
}

// StderrTail returns the last n non-empty lines of stderr
func (r *Result) StderrTail(n int) string {
	lines := strings.Split(strings.TrimRight(string(r.Stderr), "\n"), "\n")
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

// NotFoundError means the binary does not exist or is not on PATH
type NotFoundError struct {
	Binary string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: command not found", e.Binary)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ExecFailedError covers every other launch or I/O failure
type ExecFailedError struct {
	Binary string
	Err    error
}

func (e *ExecFailedError) Error() string {
	return fmt.Sprintf("running %s failed: %v", e.Binary, e.Err)
}

func (e *ExecFailedError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a *NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// DefaultWaitDelay bounds how long output is still read after the child
// exits, for grandchildren that keep its stdout or stderr open
const DefaultWaitDelay = 2 * time.Second

// Executor launches child processes
type Executor struct {
	// Dir is the working directory of child processes, "" for the current one
	Dir string
	// Env is appended to the current environment
	Env []string
	// WaitDelay is passed to exec.Cmd.WaitDelay
	WaitDelay time.Duration
}

// New creates an executor running in dir
func New(dir string) *Executor {
	return &Executor{Dir: dir, WaitDelay: DefaultWaitDelay}
}

// Execute runs command with args and stdin closed. stdout and stderr are
// read concurrently until the process exits, plus at most WaitDelay for
// descendants still holding the pipes. Cancelling ctx kills the process,
// which then reports no exit code.
func (e *Executor) Execute(ctx context.Context, command string, args []string, tags map[string]string) (*Result, error) {
	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = e.Dir
	cmd.Stdin = nil
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	cmd.WaitDelay = e.WaitDelay
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Binary: command, Err: err}
		}
		return nil, &ExecFailedError{Binary: command, Err: err}
	}
	log.Printf("Started %s (pid %d) tags=%v", command, cmd.Process.Pid, tags)

	waitErr := cmd.Wait()
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		log.Printf("%s exited but its output stayed open, stopped reading after %s", command, e.WaitDelay)
		waitErr = nil
	}

	result := &Result{
		Stdout:  outBuf.Bytes(),
		Stderr:  errBuf.Bytes(),
		Context: tags,
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) && ctx.Err() == nil {
			return nil, &ExecFailedError{Binary: command, Err: waitErr}
		}
	}

	if ctx.Err() == nil && cmd.ProcessState != nil {
		if code := cmd.ProcessState.ExitCode(); code >= 0 {
			result.ExitCode = &code
		}
	}
	log.Printf("%s finished: exit=%s stdout=%d bytes stderr=%d bytes", command, formatExit(result.ExitCode), len(result.Stdout), len(result.Stderr))
	return result, nil
}

// DetectProvider checks whether a provider CLI is installed by running it
// with --version. prefix is inserted before --version for CLIs that live
// behind a subcommand, such as "gh copilot".
func (e *Executor) DetectProvider(ctx context.Context, binary, providerID, displayName, configKey string, prefix ...string) (*Result, error) {
	args := append(append([]string{}, prefix...), "--version")
	return e.Execute(ctx, binary, args, map[string]string{
		TagRequestType: RequestDetection,
		TagProviderID:  providerID,
		TagDisplayName: displayName,
		TagCLICommand:  binary,
		TagConfigKey:   configKey,
	})
}

// RunPrompt runs a provider with the arguments its builder produced
func (e *Executor) RunPrompt(ctx context.Context, binary string, args []string, providerName string) (*Result, error) {
	return e.Execute(ctx, binary, args, map[string]string{
		TagRequestType: RequestPrompt,
		TagProvider:    providerName,
	})
}

// formatExit renders an exit code for log messages
func formatExit(code *int) string {
	if code == nil {
		return "signal"
	}
	return fmt.Sprint(*code)
}
