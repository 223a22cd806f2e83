// Package state holds the mode machine and everything the UI shows. It is
// owned by the event loop and never touched from other goroutines.
package state

import (
	"fmt"
	"log"
	"time"

	"github.com/pstuifzand/zcode/internal/apply"
	"github.com/pstuifzand/zcode/internal/config"
	"github.com/pstuifzand/zcode/internal/executor"
	"github.com/pstuifzand/zcode/internal/model"
	"github.com/pstuifzand/zcode/internal/provider"
	"github.com/pstuifzand/zcode/internal/session"
	"github.com/pstuifzand/zcode/internal/tasks"
)

// Mode is the current screen of the application
type Mode int

const (
	ModeProviderSelect Mode = iota
	ModePromptEntry
	ModeProcessing
	ModeDiffReview
	ModeConfirmation
	ModeError
	ModeHelp
	ModeCommand
)

func (m Mode) String() string {
	switch m {
	case ModeProviderSelect:
		return "SELECT"
	case ModePromptEntry:
		return "PROMPT"
	case ModeProcessing:
		return "PROCESSING"
	case ModeDiffReview:
		return "REVIEW"
	case ModeConfirmation:
		return "CONFIRM"
	case ModeError:
		return "ERROR"
	case ModeHelp:
		return "HELP"
	case ModeCommand:
		return "COMMAND"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ExecutionState is latched while a prompt is running
type ExecutionState int

const (
	ExecutionIdle ExecutionState = iota
	ExecutionWaitingForResult
)

// DetectionState tracks provider detection
type DetectionState int

const (
	DetectionNotStarted DetectionState = iota
	DetectionInProgress
	DetectionCompleted
)

// ErrorDisplay is what the Error mode shows
type ErrorDisplay struct {
	Title   string
	Message string
	HelpURL string
}

// State is the application model
type State struct {
	Mode Mode
	// previous is the mode to return to from Help and Command
	previous Mode

	Config   *config.Config
	Registry *provider.Registry

	// Available lists providers that passed detection, in the order their
	// detections completed
	Available []*provider.Provider
	// Selected is the cursor in the provider list
	Selected  int
	Provider  *provider.Provider
	Model     string
	Detection DetectionState
	detecting map[string]*provider.Provider

	Execution  ExecutionState
	LastPrompt string

	Hunks        []model.Hunk
	SelectedHunk int
	Filter       HunkFilter
	Pending      map[string]model.FileChange
	Proposed     []*model.ProposedChange
	// Degraded is set when a diff timed out and whole-file hunks were used
	Degraded bool
	// DiffTimeout overrides diff.DefaultTimeout when positive
	DiffTimeout time.Duration

	Chat      model.ChatHistory
	Error     *ErrorDisplay
	LastApply *apply.Result
	// Status is a one-line message for the status bar
	Status string

	// Root is the directory relative provider paths are resolved against
	Root string

	tracker  *tasks.Tracker
	exec     *executor.Executor
	applier  *apply.Applier
	sessions *session.Manager
}

// Options are the collaborators of a State
type Options struct {
	Config   *config.Config
	Registry *provider.Registry
	Root     string
	Tracker  *tasks.Tracker
	Executor *executor.Executor
	Applier  *apply.Applier
	// Sessions is optional
	Sessions *session.Manager
}

// New creates a state in ProviderSelect mode
func New(opts Options) *State {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Registry == nil {
		opts.Registry = provider.NewRegistry()
	}
	if opts.Tracker == nil {
		opts.Tracker = tasks.NewTracker()
	}
	if opts.Executor == nil {
		opts.Executor = executor.New(opts.Root)
	}
	if opts.Applier == nil {
		opts.Applier = apply.NewApplier(nil)
	}
	return &State{
		Mode:      ModeProviderSelect,
		Config:    opts.Config,
		Registry:  opts.Registry,
		Pending:   make(map[string]model.FileChange),
		Root:      opts.Root,
		detecting: make(map[string]*provider.Provider),
		tracker:   opts.Tracker,
		exec:      opts.Executor,
		applier:   opts.Applier,
		sessions:  opts.Sessions,
	}
}

// Sessions returns the session manager, which may be nil
func (s *State) Sessions() *session.Manager {
	return s.sessions
}

// Tracker returns the task tracker
func (s *State) Tracker() *tasks.Tracker {
	return s.tracker
}

func (s *State) setMode(m Mode) {
	if m != s.Mode {
		log.Printf("Mode %s -> %s", s.Mode, m)
	}
	if s.Mode == ModeProcessing && m != ModeProcessing {
		s.Execution = ExecutionIdle
	}
	if m == ModeProcessing {
		s.Execution = ExecutionWaitingForResult
	}
	s.Mode = m
}

// ShowError switches to the Error mode
func (s *State) ShowError(title, message, helpURL string) {
	s.Error = &ErrorDisplay{Title: title, Message: message, HelpURL: helpURL}
	s.setMode(ModeError)
}

// DismissError leaves the Error mode for PromptEntry
func (s *State) DismissError() {
	if s.Mode != ModeError {
		return
	}
	s.Error = nil
	s.setMode(ModePromptEntry)
}

// ToggleHelp enters Help, or returns to the mode Help was entered from.
// Help is not available while a prompt is processing, since its result
// is only accepted in Processing.
func (s *State) ToggleHelp() {
	switch s.Mode {
	case ModeHelp:
		s.setMode(s.previous)
	case ModeProcessing:
	default:
		s.previous = s.Mode
		s.setMode(ModeHelp)
	}
}

// EnterCommand switches to command mode, remembering the current mode. It
// reports false while a prompt is processing.
func (s *State) EnterCommand() bool {
	switch s.Mode {
	case ModeCommand:
		return true
	case ModeProcessing:
		return false
	}
	s.previous = s.Mode
	s.setMode(ModeCommand)
	return true
}

// LeaveCommand returns to the mode command mode was entered from. A
// command may already have moved to another mode, which is kept.
func (s *State) LeaveCommand() {
	if s.Mode == ModeCommand {
		s.setMode(s.previous)
	}
}

// Select makes the provider at idx of Available active
func (s *State) Select(idx int) error {
	if idx < 0 || idx >= len(s.Available) {
		return fmt.Errorf("no provider at position %d", idx+1)
	}
	s.Selected = idx
	s.Provider = s.Available[idx]
	s.Status = "Using " + s.Provider.Name
	if s.sessions != nil {
		s.sessions.StartSession(s.Provider.Key, s.Root)
	}
	s.setMode(ModePromptEntry)
	return nil
}

// SelectByName makes the named provider active. It must be available.
func (s *State) SelectByName(name string) error {
	p, ok := s.Registry.Lookup(name)
	key := name
	if ok {
		key = p.Key
	}
	for i, a := range s.Available {
		if a.Key == key {
			return s.Select(i)
		}
	}
	return fmt.Errorf("provider %q is not available", name)
}

// BackToPrompt leaves the review for a new prompt, keeping the hunks
func (s *State) BackToPrompt() {
	if s.Provider == nil {
		s.setMode(ModeProviderSelect)
		return
	}
	s.setMode(ModePromptEntry)
}

// ShowReview returns from PromptEntry to the hunks still under review
func (s *State) ShowReview() bool {
	if s.Mode != ModePromptEntry || len(s.Hunks) == 0 {
		return false
	}
	s.setMode(ModeDiffReview)
	return true
}

// ChooseProvider goes back to the provider list. It is refused while a
// prompt runs.
func (s *State) ChooseProvider() {
	if s.Mode == ModeProcessing {
		return
	}
	s.setMode(ModeProviderSelect)
}

// SetModel sets the model passed to providers that accept one
func (s *State) SetModel(name string) {
	s.Model = name
	s.Status = "Model set to " + name
}

// ClearConversation drops the chat and any hunks under review
func (s *State) ClearConversation() {
	s.Chat.Clear()
	s.Hunks = nil
	s.Pending = make(map[string]model.FileChange)
	s.Proposed = nil
	s.SelectedHunk = 0
	s.Filter = FilterAll
	s.Degraded = false
	s.Status = "Cleared"
	if s.Mode == ModeDiffReview {
		s.BackToPrompt()
	}
}

// Poll hands finished tasks to the state machine. It never blocks.
func (s *State) Poll() int {
	completed := s.tracker.PollCompleted()
	for _, c := range completed {
		s.HandleCompletion(c)
	}
	return len(completed)
}
